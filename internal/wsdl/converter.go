package wsdl

import (
	"context"
	"encoding/xml"
	"fmt"

	"github.com/gatewaymesh/uddi-reconciler/internal/gateway"
	"github.com/gatewaymesh/uddi-reconciler/internal/uddi"
)

// wsdl:definitions, reduced to the parts the registry model needs.
type definitions struct {
	XMLName   xml.Name      `xml:"definitions"`
	Name      string        `xml:"name,attr"`
	PortTypes []namedElem   `xml:"portType"`
	Bindings  []wsdlBinding `xml:"binding"`
	Services  []wsdlService `xml:"service"`
}

type namedElem struct {
	Name string `xml:"name,attr"`
}

type wsdlBinding struct {
	Name string `xml:"name,attr"`
	Type string `xml:"type,attr"`
}

type wsdlService struct {
	Name  string     `xml:"name,attr"`
	Ports []wsdlPort `xml:"port"`
}

type wsdlPort struct {
	Name    string `xml:"name,attr"`
	Binding string `xml:"binding,attr"`
}

type defaultConverter struct{}

// NewConverter returns the standard WSDL converter. It renders one business
// service per wsdl:service and one tModel per portType and binding, with
// overview documents pointing at the gateway-hosted WSDL.
func NewConverter() Converter {
	return defaultConverter{}
}

func (defaultConverter) Convert(_ context.Context, svc *gateway.Service, wsdlURL, endpointURL, businessKey string) (*Converted, error) {
	var defs definitions
	if err := xml.Unmarshal(svc.Wsdl, &defs); err != nil {
		return nil, fmt.Errorf("%w: parse wsdl for %s: %w", ErrMalformed, svc.Name, err)
	}
	if len(defs.Services) == 0 {
		return nil, fmt.Errorf("%w: no wsdl:service elements in %s", ErrMalformed, svc.Name)
	}

	out := &Converted{}
	for _, pt := range defs.PortTypes {
		if pt.Name == "" {
			return nil, fmt.Errorf("%w: unnamed portType in %s", ErrMalformed, svc.Name)
		}
		out.TModels = append(out.TModels, uddi.TModel{
			Name:        pt.Name,
			Description: fmt.Sprintf("portType for %s", svc.Name),
			OverviewURL: wsdlURL,
		})
	}
	for _, b := range defs.Bindings {
		if b.Name == "" {
			return nil, fmt.Errorf("%w: unnamed binding in %s", ErrMalformed, svc.Name)
		}
		out.TModels = append(out.TModels, uddi.TModel{
			Name:        b.Name,
			Description: fmt.Sprintf("binding for %s", svc.Name),
			OverviewURL: wsdlURL,
		})
	}
	for _, ws := range defs.Services {
		if ws.Name == "" {
			return nil, fmt.Errorf("%w: unnamed wsdl:service in %s", ErrMalformed, svc.Name)
		}
		for _, port := range ws.Ports {
			out.TModels = append(out.TModels, uddi.TModel{
				Name:        port.Name,
				Description: fmt.Sprintf("access point for %s", ws.Name),
				OverviewURL: endpointURL,
			})
		}
		out.Services = append(out.Services, uddi.BusinessService{
			Name:            ws.Name,
			BusinessKey:     businessKey,
			WsdlServiceName: ws.Name,
		})
	}
	return out, nil
}
