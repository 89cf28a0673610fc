package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishStatus_Advance(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		from    PublishState
		to      PublishState
		wantErr bool
	}{
		{name: "none to publish", from: PublishStateNone, to: PublishStatePublish},
		{name: "publish to publishing", from: PublishStatePublish, to: PublishStatePublishing},
		{name: "publishing to published", from: PublishStatePublishing, to: PublishStatePublished},
		{name: "publishing to publish failed", from: PublishStatePublishing, to: PublishStatePublishFailed},
		{name: "publishing to cannot publish", from: PublishStatePublishing, to: PublishStateCannotPublish},
		{name: "published to delete", from: PublishStatePublished, to: PublishStateDelete},
		{name: "published to republish", from: PublishStatePublished, to: PublishStatePublish},
		{name: "publish failed to retry", from: PublishStatePublishFailed, to: PublishStatePublish},
		{name: "delete to deleted", from: PublishStateDelete, to: PublishStateDeleted},
		{name: "delete to delete failed", from: PublishStateDelete, to: PublishStateDeleteFailed},
		{name: "delete failed to retry", from: PublishStateDeleteFailed, to: PublishStateDelete},
		{name: "none to published is illegal", from: PublishStateNone, to: PublishStatePublished, wantErr: true},
		{name: "publish to published is illegal", from: PublishStatePublish, to: PublishStatePublished, wantErr: true},
		{name: "published to deleted is illegal", from: PublishStatePublished, to: PublishStateDeleted, wantErr: true},
		{name: "cannot publish is terminal", from: PublishStateCannotPublish, to: PublishStatePublish, wantErr: true},
		{name: "deleted is terminal", from: PublishStateDeleted, to: PublishStatePublish, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			st := &PublishStatus{State: tt.from}
			err := st.Advance(tt.to)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.from, st.State)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, st.State)
		})
	}
}

func TestBusinessServiceStatus_UpdateMetricsState(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		from    ReferenceState
		enabled bool
		want    ReferenceState
	}{
		{name: "none becomes publish when enabled", from: ReferenceStateNone, enabled: true, want: ReferenceStatePublish},
		{name: "publish stays publish when enabled", from: ReferenceStatePublish, enabled: true, want: ReferenceStatePublish},
		{name: "published stays published when enabled", from: ReferenceStatePublished, enabled: true, want: ReferenceStatePublished},
		{name: "delete stays delete when enabled", from: ReferenceStateDelete, enabled: true, want: ReferenceStateDelete},
		{name: "published becomes delete when disabled", from: ReferenceStatePublished, enabled: false, want: ReferenceStateDelete},
		{name: "pending publish is cancelled when disabled", from: ReferenceStatePublish, enabled: false, want: ReferenceStateNone},
		{name: "none stays none when disabled", from: ReferenceStateNone, enabled: false, want: ReferenceStateNone},
		{name: "delete stays delete when disabled", from: ReferenceStateDelete, enabled: false, want: ReferenceStateDelete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			st := &BusinessServiceStatus{MetricsState: tt.from}
			st.UpdateMetricsState(tt.enabled)
			assert.Equal(t, tt.want, st.MetricsState)
		})
	}
}

func TestRegistrySubscription_PollMode(t *testing.T) {
	t.Parallel()

	sub := &RegistrySubscription{}
	assert.False(t, sub.PollMode())

	sub.CheckTime = time.Now()
	assert.True(t, sub.PollMode())
}
