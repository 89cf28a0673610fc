package uddi

import "encoding/xml"

// Wire documents for the UDDI v3 API subset the client uses. Only the
// elements the workflows read or write are modeled.

type getAuthToken struct {
	XMLName xml.Name `xml:"urn:uddi-org:api_v3 get_authToken"`
	UserID  string   `xml:"userID,attr"`
	Cred    string   `xml:"cred,attr"`
}

type authTokenResponse struct {
	AuthInfo string `xml:"authInfo"`
}

type findService struct {
	Name string `xml:"name,omitempty"`
}

type subscriptionFilter struct {
	FindService *findService `xml:"find_service,omitempty"`
}

type subscription struct {
	SubscriptionKey      string              `xml:"subscriptionKey,omitempty"`
	Filter               *subscriptionFilter `xml:"subscriptionFilter,omitempty"`
	BindingKey           string              `xml:"bindingKey,omitempty"`
	NotificationInterval string              `xml:"notificationInterval,omitempty"`
	ExpiresAfter         string              `xml:"expiresAfter,omitempty"`
}

type saveSubscription struct {
	XMLName      xml.Name     `xml:"urn:uddi-org:sub_v3 save_subscription"`
	AuthInfo     string       `xml:"authInfo"`
	Subscription subscription `xml:"subscription"`
}

type subscriptionDetail struct {
	Subscriptions []subscription `xml:"subscription"`
}

type deleteSubscription struct {
	XMLName          xml.Name `xml:"urn:uddi-org:sub_v3 delete_subscription"`
	AuthInfo         string   `xml:"authInfo"`
	SubscriptionKeys []string `xml:"subscriptionKey"`
}

type coveragePeriod struct {
	StartPoint string `xml:"startPoint"`
	EndPoint   string `xml:"endPoint"`
}

type getSubscriptionResults struct {
	XMLName         xml.Name       `xml:"urn:uddi-org:sub_v3 get_subscriptionResults"`
	AuthInfo        string         `xml:"authInfo"`
	SubscriptionKey string         `xml:"subscriptionKey"`
	CoveragePeriod  coveragePeriod `xml:"coveragePeriod"`
}

type nameDoc struct {
	Value string `xml:",chardata"`
}

type keyedReferenceDoc struct {
	TModelKey string `xml:"tModelKey,attr"`
	KeyName   string `xml:"keyName,attr,omitempty"`
	KeyValue  string `xml:"keyValue,attr"`
}

type categoryBagDoc struct {
	KeyedReferences []keyedReferenceDoc `xml:"keyedReference"`
}

type bindingTemplateDoc struct {
	BindingKey string `xml:"bindingKey,attr"`
}

type businessServiceDoc struct {
	XMLName          xml.Name             `xml:"businessService"`
	ServiceKey       string               `xml:"serviceKey,attr,omitempty"`
	BusinessKey      string               `xml:"businessKey,attr,omitempty"`
	Names            []nameDoc            `xml:"name"`
	BindingTemplates []bindingTemplateDoc `xml:"bindingTemplates>bindingTemplate"`
	CategoryBag      *categoryBagDoc      `xml:"categoryBag,omitempty"`
}

type saveService struct {
	XMLName  xml.Name             `xml:"urn:uddi-org:api_v3 save_service"`
	AuthInfo string               `xml:"authInfo"`
	Services []businessServiceDoc `xml:"businessService"`
}

type serviceDetail struct {
	Services []businessServiceDoc `xml:"businessService"`
}

type deleteService struct {
	XMLName     xml.Name `xml:"urn:uddi-org:api_v3 delete_service"`
	AuthInfo    string   `xml:"authInfo"`
	ServiceKeys []string `xml:"serviceKey"`
}

type overviewDoc struct {
	OverviewURL string `xml:"overviewURL"`
}

type tModelDoc struct {
	XMLName     xml.Name        `xml:"tModel"`
	TModelKey   string          `xml:"tModelKey,attr,omitempty"`
	Name        nameDoc         `xml:"name"`
	Description string          `xml:"description,omitempty"`
	OverviewDoc *overviewDoc    `xml:"overviewDoc,omitempty"`
	CategoryBag *categoryBagDoc `xml:"categoryBag,omitempty"`
}

type saveTModel struct {
	XMLName  xml.Name    `xml:"urn:uddi-org:api_v3 save_tModel"`
	AuthInfo string      `xml:"authInfo"`
	TModels  []tModelDoc `xml:"tModel"`
}

type tModelDetail struct {
	TModels []tModelDoc `xml:"tModel"`
}

type deleteTModel struct {
	XMLName    xml.Name `xml:"urn:uddi-org:api_v3 delete_tModel"`
	AuthInfo   string   `xml:"authInfo"`
	TModelKeys []string `xml:"tModelKey"`
}

type getServiceDetail struct {
	XMLName     xml.Name `xml:"urn:uddi-org:api_v3 get_serviceDetail"`
	ServiceKeys []string `xml:"serviceKey"`
}

type errInfoDoc struct {
	ErrCode string `xml:"errCode,attr"`
	Text    string `xml:",chardata"`
}

type resultDoc struct {
	Errno   string     `xml:"errno,attr"`
	ErrInfo errInfoDoc `xml:"errInfo"`
}

type dispositionReport struct {
	Results []resultDoc `xml:"result"`
}
