// Package wsdl defines the WSDL-to-registry-model conversion boundary and
// the content hashing used for local change detection.
package wsdl

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/gatewaymesh/uddi-reconciler/internal/gateway"
	"github.com/gatewaymesh/uddi-reconciler/internal/uddi"
)

// ErrMalformed is returned when a WSDL cannot be converted. Conversion
// failures are not retryable; the document itself is bad.
var ErrMalformed = errors.New("wsdl: malformed document")

// Converted is the registry-model rendering of one local service's WSDL:
// one business service per wsdl:service, plus the portType/binding tModels
// they reference.
type Converted struct {
	Services []uddi.BusinessService
	TModels  []uddi.TModel
}

// Converter turns a local service's WSDL into registry objects. The
// wsdlURL and endpointURL are the externally reachable addresses baked
// into the generated overview documents and access points.
//
//go:generate mockgen -destination=mocks/mock_converter.go -package=mocks github.com/gatewaymesh/uddi-reconciler/internal/wsdl Converter
type Converter interface {
	Convert(ctx context.Context, svc *gateway.Service, wsdlURL, endpointURL, businessKey string) (*Converted, error)
}

// Hash returns the content hash recorded on ProxiedServiceInfo for change
// detection.
func Hash(wsdl []byte) string {
	sum := sha256.Sum256(wsdl)
	return hex.EncodeToString(sum[:])
}
