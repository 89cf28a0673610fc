// Package model defines the persistent entities of the reconciliation layer:
// registry configurations, publish records, monitored service controls,
// subscriptions, and the per-service status table.
package model

import (
	"github.com/google/uuid"
)

// Registry holds the configuration for one external UDDI-style directory.
// Administrators create, edit, and delete registries; every change
// invalidates the coordinator's periodic schedule.
type Registry struct {
	ID   uuid.UUID
	Name string

	// Enabled gates all periodic work for this registry.
	Enabled bool

	// RegistryType tags the directory vendor and is used to look up
	// naming and description templates for published tModels.
	RegistryType string

	// Endpoint URLs for the four UDDI API sets.
	InquiryURL      string
	PublicationURL  string
	SubscriptionURL string
	SecurityURL     string

	Username string
	Password string

	// MonitoringEnabled turns on change tracking for registry-owned
	// services. MonitoringFrequency is the poll period in milliseconds
	// and is only honored when notifications are not subscribed.
	MonitoringEnabled   bool
	MonitoringFrequency int64

	// MetricsEnabled turns on metrics reference publishing.
	// MetricPublishFrequency is the publish period in milliseconds.
	MetricsEnabled         bool
	MetricPublishFrequency int64

	// SubscribeForNotifications selects push notifications over polling
	// when a notification listener endpoint can be resolved.
	SubscribeForNotifications bool
}
