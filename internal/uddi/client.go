package uddi

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gatewaymesh/uddi-reconciler/internal/model"
)

const (
	// defaultTimeout bounds every wire call. The scheduler executes tasks
	// one at a time, so a hung registry call would stall all other work.
	defaultTimeout = 30 * time.Second

	// maxResponseSize caps registry responses (4MB).
	maxResponseSize = 4 * 1024 * 1024

	userAgent = "uddi-reconciler/1.0"
)

// tModelKeyPolicyTypes is the well-known categorization tModel used when a
// policy is referenced on a business service.
const tModelKeyPolicyTypes = "uddi:schemas.xmlsoap.org:policytypes:2003_03"

// HTTPFactory builds SOAP-over-HTTP clients, one per registry.
type HTTPFactory struct {
	httpClient *http.Client
}

// NewHTTPFactory returns a factory sharing one underlying HTTP client.
func NewHTTPFactory() *HTTPFactory {
	return &HTTPFactory{
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// ClientFor implements ClientFactory.
func (f *HTTPFactory) ClientFor(reg *model.Registry) Client {
	return &soapClient{
		http:            f.httpClient,
		inquiryURL:      reg.InquiryURL,
		publicationURL:  reg.PublicationURL,
		subscriptionURL: reg.SubscriptionURL,
		securityURL:     reg.SecurityURL,
		username:        reg.Username,
		password:        reg.Password,
	}
}

// soapClient speaks the UDDI v3 SOAP API sets against one registry. The
// security token is fetched lazily and cached until a call rejects it.
type soapClient struct {
	http *http.Client

	inquiryURL      string
	publicationURL  string
	subscriptionURL string
	securityURL     string
	username        string
	password        string

	mu        sync.Mutex
	authToken string
}

func (c *soapClient) Authenticate(ctx context.Context) error {
	_, err := c.token(ctx)
	return err
}

func (c *soapClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.authToken != "" {
		return c.authToken, nil
	}

	req := getAuthToken{UserID: c.username, Cred: c.password}
	var resp authTokenResponse
	if err := c.call(ctx, c.securityURL, req, "authToken", &resp); err != nil {
		if errors.Is(err, ErrAuthFailed) || IsTransient(err) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	if resp.AuthInfo == "" {
		return "", ErrAuthFailed
	}
	c.authToken = resp.AuthInfo
	return c.authToken, nil
}

func (c *soapClient) invalidateToken() {
	c.mu.Lock()
	c.authToken = ""
	c.mu.Unlock()
}

func (c *soapClient) Subscribe(
	ctx context.Context, expiry time.Time, interval time.Duration, bindingKey string,
) (string, error) {
	token, err := c.token(ctx)
	if err != nil {
		return "", err
	}

	sub := subscription{
		ExpiresAfter: expiry.UTC().Format(time.RFC3339),
		// Subscribe to every business service visible to this account;
		// result processing filters down to monitored services locally.
		Filter: &subscriptionFilter{FindService: &findService{Name: "%"}},
	}
	if bindingKey != "" {
		sub.BindingKey = bindingKey
		sub.NotificationInterval = xsdDuration(interval)
	}

	req := saveSubscription{AuthInfo: token, Subscription: sub}
	var resp subscriptionDetail
	if err := c.call(ctx, c.subscriptionURL, req, "subscriptionDetail", &resp); err != nil {
		return "", err
	}
	if len(resp.Subscriptions) == 0 || resp.Subscriptions[0].SubscriptionKey == "" {
		return "", fmt.Errorf("registry returned no subscription key")
	}
	return resp.Subscriptions[0].SubscriptionKey, nil
}

func (c *soapClient) DeleteSubscription(ctx context.Context, subscriptionKey string) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}
	req := deleteSubscription{AuthInfo: token, SubscriptionKeys: []string{subscriptionKey}}
	return c.call(ctx, c.subscriptionURL, req, "", nil)
}

func (c *soapClient) PollSubscription(
	ctx context.Context, from, to time.Time, subscriptionKey string,
) ([]SubscriptionResult, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	req := getSubscriptionResults{
		AuthInfo:        token,
		SubscriptionKey: subscriptionKey,
		CoveragePeriod: coveragePeriod{
			StartPoint: from.UTC().Format(time.RFC3339),
			EndPoint:   to.UTC().Format(time.RFC3339),
		},
	}
	var doc subscriptionResultsList
	if err := c.call(ctx, c.subscriptionURL, req, "subscriptionResultsList", &doc); err != nil {
		return nil, err
	}
	n, err := notificationFromDoc(&doc)
	if err != nil {
		return nil, err
	}
	return n.Results, nil
}

func (c *soapClient) PublishServices(
	ctx context.Context, services []BusinessService, tModels []TModel,
) ([]BusinessService, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	// tModels first; business services may reference them.
	for _, tm := range tModels {
		req := saveTModel{AuthInfo: token, TModels: []tModelDoc{tModelToDoc(tm)}}
		if err := c.call(ctx, c.publicationURL, req, "", nil); err != nil {
			return nil, err
		}
	}

	var published []BusinessService
	for _, svc := range services {
		req := saveService{
			AuthInfo: token,
			Services: []businessServiceDoc{{
				BusinessKey: svc.BusinessKey,
				ServiceKey:  svc.ServiceKey,
				Names:       []nameDoc{{Value: svc.Name}},
			}},
		}
		var resp serviceDetail
		if err := c.call(ctx, c.publicationURL, req, "serviceDetail", &resp); err != nil {
			// Partial success: report what made it so the caller can
			// compensate precisely.
			return published, err
		}
		for _, doc := range resp.Services {
			published = append(published, BusinessService{
				ServiceKey:      doc.ServiceKey,
				Name:            firstName(doc.Names),
				BusinessKey:     doc.BusinessKey,
				WsdlServiceName: svc.WsdlServiceName,
			})
		}
	}
	return published, nil
}

func (c *soapClient) DeleteBusinessServices(ctx context.Context, serviceKeys []string) error {
	if len(serviceKeys) == 0 {
		return nil
	}
	token, err := c.token(ctx)
	if err != nil {
		return err
	}
	req := deleteService{AuthInfo: token, ServiceKeys: serviceKeys}
	return c.call(ctx, c.publicationURL, req, "", nil)
}

func (c *soapClient) PublishPolicy(
	ctx context.Context, existingKey, name, description, policyURL string,
) (string, error) {
	token, err := c.token(ctx)
	if err != nil {
		return "", err
	}
	doc := tModelDoc{
		TModelKey:   existingKey,
		Name:        nameDoc{Value: name},
		Description: description,
		OverviewDoc: &overviewDoc{OverviewURL: policyURL},
	}
	req := saveTModel{AuthInfo: token, TModels: []tModelDoc{doc}}
	var resp tModelDetail
	if err := c.call(ctx, c.publicationURL, req, "tModelDetail", &resp); err != nil {
		return "", err
	}
	if len(resp.TModels) == 0 || resp.TModels[0].TModelKey == "" {
		return "", fmt.Errorf("registry returned no tModel key for policy %q", name)
	}
	return resp.TModels[0].TModelKey, nil
}

func (c *soapClient) ReferencePolicy(ctx context.Context, serviceKey, tModelKey, policyURL string) error {
	return c.mutateServiceCategoryBag(ctx, serviceKey, func(refs []keyedReferenceDoc) []keyedReferenceDoc {
		return append(refs, keyedReferenceDoc{
			TModelKey: tModelKeyPolicyTypes,
			KeyName:   "policy",
			KeyValue:  policyRefValue(tModelKey, policyURL),
		})
	})
}

func (c *soapClient) RemovePolicyReference(ctx context.Context, serviceKey, tModelKey, policyURL string) error {
	// ReferencePolicy wrote exactly this keyValue, so removal matches on
	// it; a sibling policy reference with a different value survives.
	wanted := policyRefValue(tModelKey, policyURL)
	return c.mutateServiceCategoryBag(ctx, serviceKey, func(refs []keyedReferenceDoc) []keyedReferenceDoc {
		out := refs[:0]
		for _, ref := range refs {
			if ref.TModelKey == tModelKeyPolicyTypes && ref.KeyValue == wanted {
				continue
			}
			out = append(out, ref)
		}
		return out
	})
}

func (c *soapClient) DeleteTModel(ctx context.Context, tModelKey string) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}
	req := deleteTModel{AuthInfo: token, TModelKeys: []string{tModelKey}}
	return c.call(ctx, c.publicationURL, req, "", nil)
}

func (c *soapClient) GetBindingKeyForService(ctx context.Context, serviceKey string) (string, error) {
	doc, err := c.getServiceDoc(ctx, serviceKey)
	if err != nil {
		return "", err
	}
	if len(doc.BindingTemplates) == 0 {
		return "", fmt.Errorf("service %s has no binding templates", serviceKey)
	}
	return doc.BindingTemplates[0].BindingKey, nil
}

func (c *soapClient) GetBusinessServices(ctx context.Context, serviceKeys []string) ([]BusinessService, error) {
	var out []BusinessService
	for _, key := range serviceKeys {
		doc, err := c.getServiceDoc(ctx, key)
		if errors.Is(err, ErrInvalidKey) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, BusinessService{
			ServiceKey:  doc.ServiceKey,
			Name:        firstName(doc.Names),
			BusinessKey: doc.BusinessKey,
		})
	}
	return out, nil
}

func (c *soapClient) getServiceDoc(ctx context.Context, serviceKey string) (*businessServiceDoc, error) {
	req := getServiceDetail{ServiceKeys: []string{serviceKey}}
	var resp serviceDetail
	if err := c.call(ctx, c.inquiryURL, req, "serviceDetail", &resp); err != nil {
		return nil, err
	}
	if len(resp.Services) == 0 {
		return nil, ErrInvalidKey
	}
	return &resp.Services[0], nil
}

func (c *soapClient) mutateServiceCategoryBag(
	ctx context.Context, serviceKey string, mutate func([]keyedReferenceDoc) []keyedReferenceDoc,
) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}
	doc, err := c.getServiceDoc(ctx, serviceKey)
	if err != nil {
		return err
	}
	if doc.CategoryBag == nil {
		doc.CategoryBag = &categoryBagDoc{}
	}
	doc.CategoryBag.KeyedReferences = mutate(doc.CategoryBag.KeyedReferences)

	req := saveService{AuthInfo: token, Services: []businessServiceDoc{*doc}}
	return c.call(ctx, c.publicationURL, req, "", nil)
}

// call marshals req into a SOAP envelope, posts it, and decodes the first
// element named respLocal into resp. A nil resp discards the response body
// after fault checking.
func (c *soapClient) call(ctx context.Context, endpoint string, req any, respLocal string, resp any) error {
	op := soapOpName(req)

	inner, err := xml.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", op, err)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString(`<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/"><soapenv:Body>`)
	buf.Write(inner)
	buf.WriteString(`</soapenv:Body></soapenv:Envelope>`)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	httpReq.Header.Set("Content-Type", "text/xml; charset=utf-8")
	httpReq.Header.Set("SOAPAction", "")
	httpReq.Header.Set("User-Agent", userAgent)

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return &TransientError{Op: op, Err: err}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return &TransientError{Op: op, Err: err}
	}

	if httpResp.StatusCode >= http.StatusInternalServerError {
		// UDDI faults come back as 500 with a dispositionReport; map the
		// error code before treating it as transient.
		if err := faultFromBody(op, body); err != nil {
			if errors.Is(err, ErrAuthFailed) {
				c.invalidateToken()
			}
			return err
		}
		return &TransientError{Op: op, Err: fmt.Errorf("http status %d", httpResp.StatusCode)}
	}
	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected http status %d", op, httpResp.StatusCode)
	}
	if err := faultFromBody(op, body); err != nil {
		if errors.Is(err, ErrAuthFailed) {
			c.invalidateToken()
		}
		return err
	}

	if resp == nil || respLocal == "" {
		return nil
	}
	if err := decodeFirst(body, respLocal, resp); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// faultFromBody maps a dispositionReport in the response to a typed error.
// Returns nil when the body carries no fault.
func faultFromBody(op string, body []byte) error {
	var report dispositionReport
	if err := decodeFirst(body, "dispositionReport", &report); err != nil {
		return nil
	}
	for _, res := range report.Results {
		switch res.ErrInfo.ErrCode {
		case "E_invalidKeyPassed":
			return fmt.Errorf("%s: %s: %w", op, res.ErrInfo.Text, ErrInvalidKey)
		case "E_unknownUser", "E_authTokenExpired", "E_authTokenRequired":
			return fmt.Errorf("%s: %s: %w", op, res.ErrInfo.Text, ErrAuthFailed)
		case "E_busy":
			return &TransientError{Op: op, Err: fmt.Errorf("registry busy: %s", res.ErrInfo.Text)}
		case "E_accountLimitExceeded", "E_userMismatch":
			return fmt.Errorf("%s: %s: %w", op, res.ErrInfo.Text, ErrRegistryDisabled)
		case "E_success", "":
			continue
		default:
			return fmt.Errorf("%s: registry fault %s: %s", op, res.ErrInfo.ErrCode, res.ErrInfo.Text)
		}
	}
	return nil
}

// decodeFirst finds the first element with the given local name anywhere in
// data and decodes it into out.
func decodeFirst(data []byte, local string, out any) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("no %s element in response", local)
		}
		if err != nil {
			return fmt.Errorf("malformed response: %w", err)
		}
		if start, ok := tok.(xml.StartElement); ok && start.Name.Local == local {
			return dec.DecodeElement(out, &start)
		}
	}
}

func soapOpName(req any) string {
	switch req.(type) {
	case getAuthToken:
		return "get_authToken"
	case saveSubscription:
		return "save_subscription"
	case deleteSubscription:
		return "delete_subscription"
	case getSubscriptionResults:
		return "get_subscriptionResults"
	case saveService:
		return "save_service"
	case deleteService:
		return "delete_service"
	case saveTModel:
		return "save_tModel"
	case deleteTModel:
		return "delete_tModel"
	case getServiceDetail:
		return "get_serviceDetail"
	default:
		return fmt.Sprintf("%T", req)
	}
}

// xsdDuration renders a Go duration as the xsd:duration the subscription
// API expects, to whole-second precision.
func xsdDuration(d time.Duration) string {
	secs := int64(d / time.Second)
	if secs <= 0 {
		secs = 1
	}
	return fmt.Sprintf("PT%dS", secs)
}

// policyRefValue is the keyValue stored for a policy keyed reference:
// local policies carry their tModel key, remote ones only the URL.
func policyRefValue(tModelKey, policyURL string) string {
	if tModelKey != "" {
		return tModelKey
	}
	return policyURL
}

func firstName(names []nameDoc) string {
	if len(names) == 0 {
		return ""
	}
	return names[0].Value
}

func tModelToDoc(tm TModel) tModelDoc {
	doc := tModelDoc{
		TModelKey:   tm.Key,
		Name:        nameDoc{Value: tm.Name},
		Description: tm.Description,
	}
	if tm.OverviewURL != "" {
		doc.OverviewDoc = &overviewDoc{OverviewURL: tm.OverviewURL}
	}
	return doc
}
