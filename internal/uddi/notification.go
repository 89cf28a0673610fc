package uddi

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"time"
)

// Notification is a decoded subscription-result payload as delivered by a
// registry push notification.
type Notification struct {
	SubscriptionKey string
	Results         []SubscriptionResult

	// EndTime is the registry's coverage-period end point; the watermark
	// the subscription row advances to. Zero when the payload omits it,
	// in which case the notification task substitutes its own clock.
	EndTime time.Time
}

// subscriptionResultsList mirrors the relevant subset of the UDDI v3
// subscription results document. Changed services arrive as serviceInfos;
// deleted ones arrive inside a keyBag flagged deleted.
type subscriptionResultsList struct {
	SubscriptionKey string `xml:"subscriptionKey"`
	CoveragePeriod  struct {
		EndPoint string `xml:"endPoint"`
	} `xml:"coveragePeriod"`
	ServiceList struct {
		ServiceInfos []struct {
			ServiceKey string `xml:"serviceKey,attr"`
		} `xml:"serviceInfos>serviceInfo"`
	} `xml:"serviceList"`
	KeyBags []struct {
		Deleted     bool     `xml:"deleted"`
		ServiceKeys []string `xml:"serviceKey"`
	} `xml:"keyBag"`
}

// DecodeNotification parses a push-notification payload. The results list
// may arrive bare or wrapped in a SOAP envelope; the decoder scans for the
// subscriptionResultsList element wherever it sits.
func DecodeNotification(payload []byte) (*Notification, error) {
	dec := xml.NewDecoder(bytes.NewReader(payload))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("no subscriptionResultsList element in payload")
		}
		if err != nil {
			return nil, fmt.Errorf("malformed notification payload: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "subscriptionResultsList" {
			continue
		}

		var doc subscriptionResultsList
		if err := dec.DecodeElement(&doc, &start); err != nil {
			return nil, fmt.Errorf("malformed subscriptionResultsList: %w", err)
		}
		return notificationFromDoc(&doc)
	}
}

func notificationFromDoc(doc *subscriptionResultsList) (*Notification, error) {
	if doc.SubscriptionKey == "" {
		return nil, fmt.Errorf("notification payload has no subscriptionKey")
	}

	n := &Notification{SubscriptionKey: doc.SubscriptionKey}

	if doc.CoveragePeriod.EndPoint != "" {
		end, err := time.Parse(time.RFC3339, doc.CoveragePeriod.EndPoint)
		if err != nil {
			return nil, fmt.Errorf("unparseable coverage endPoint %q: %w", doc.CoveragePeriod.EndPoint, err)
		}
		n.EndTime = end
	}

	for _, info := range doc.ServiceList.ServiceInfos {
		if info.ServiceKey == "" {
			continue
		}
		n.Results = append(n.Results, SubscriptionResult{ServiceKey: info.ServiceKey})
	}
	for _, bag := range doc.KeyBags {
		if !bag.Deleted {
			continue
		}
		for _, key := range bag.ServiceKeys {
			n.Results = append(n.Results, SubscriptionResult{ServiceKey: key, Deleted: true})
		}
	}

	return n, nil
}
