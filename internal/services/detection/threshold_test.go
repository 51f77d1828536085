package detection

import (
	"testing"

	"github.com/felipeah-dev/echo-app/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func legacy(amount float64, targets ...string) models.LegacyAction {
	return models.LegacyAction{Source: models.SourceManual, Amount: amount, Targets: targets}
}

func TestThresholdDetector_FiresOncePerCombination(t *testing.T) {
	t.Parallel()

	d := NewThresholdDetector()
	var alerts []*models.PatternAlert
	for i := 0; i < 5; i++ {
		d.RecordAction(legacy(150000, "chat", "spreadsheet"))
		alerts = append(alerts, d.DetectPattern())
	}

	assert.Nil(t, alerts[0])
	assert.Nil(t, alerts[1])
	require.NotNil(t, alerts[2])
	assert.Nil(t, alerts[3])
	assert.Nil(t, alerts[4])

	alert := alerts[2]
	assert.Equal(t, "big-deal-chat+spreadsheet", alert.ID)
	assert.Equal(t, "Pattern detected", alert.Title)
	assert.Equal(t, 0.9, alert.Confidence)
	assert.Equal(t,
		"You almost always sync deals ≥ $100K to chat + spreadsheet. Do you want to automate this for future high-value deals?",
		alert.Description)
	assert.Equal(t, float64(100000), alert.SuggestedAutomation.MinAmount)
	assert.Equal(t, []string{"chat", "spreadsheet"}, alert.SuggestedAutomation.Targets)
}

func TestThresholdDetector_Cases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		actions []models.LegacyAction
		wantID  string
	}{
		{
			name:    "empty history",
			actions: nil,
		},
		{
			name: "small deals ignored",
			actions: []models.LegacyAction{
				legacy(99999, "chat"), legacy(99999, "chat"), legacy(99999, "chat"),
			},
		},
		{
			name: "last three large deals differ",
			actions: []models.LegacyAction{
				legacy(100000, "chat"), legacy(100000, "chat"), legacy(100000, "email"),
			},
		},
		{
			name: "target order and duplicates do not matter",
			actions: []models.LegacyAction{
				legacy(100000, "email", "chat"), legacy(200000, "chat", "email", "chat"), legacy(300000, "chat", "email"),
			},
			wantID: "big-deal-chat+email",
		},
		{
			name: "small deals between large ones are skipped",
			actions: []models.LegacyAction{
				legacy(100000, "calendar"), legacy(10, "chat"), legacy(100000, "calendar"), legacy(5, "email"), legacy(100000, "calendar"),
			},
			wantID: "big-deal-calendar",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := NewThresholdDetector()
			for _, a := range tt.actions {
				d.RecordAction(a)
			}
			alert := d.DetectPattern()
			if tt.wantID == "" {
				assert.Nil(t, alert)
				return
			}
			require.NotNil(t, alert)
			assert.Equal(t, tt.wantID, alert.ID)
		})
	}
}

func TestThresholdDetector_HistoryIsBounded(t *testing.T) {
	t.Parallel()

	d := NewThresholdDetector()
	d.RecordAction(legacy(100000, "chat"))
	d.RecordAction(legacy(100000, "chat"))
	for i := 0; i < thresholdHistory; i++ {
		d.RecordAction(legacy(1, "chat"))
	}
	d.RecordAction(legacy(100000, "chat"))

	assert.Nil(t, d.DetectPattern(), "older large deals were evicted")
}

func TestThresholdDetector_NewCombinationStillFires(t *testing.T) {
	t.Parallel()

	d := NewThresholdDetector()
	for i := 0; i < 3; i++ {
		d.RecordAction(legacy(100000, "chat"))
	}
	require.NotNil(t, d.DetectPattern())

	for i := 0; i < 3; i++ {
		d.RecordAction(legacy(100000, "email"))
	}
	alert := d.DetectPattern()
	require.NotNil(t, alert)
	assert.Equal(t, "big-deal-email", alert.ID)

	for i := 0; i < 3; i++ {
		d.RecordAction(legacy(100000, "chat"))
	}
	assert.Nil(t, d.DetectPattern(), "fired ids are never re-armed")
}

func TestThresholdDetector_TrackAction(t *testing.T) {
	t.Parallel()

	d := NewThresholdDetector()
	var detector Detector = d
	assert.Equal(t, ThresholdDetectorName, detector.Name())

	for i := 0; i < 3; i++ {
		a := models.UserAction{
			Tool: models.ToolEcho,
			Type: models.ActionSyncDeal,
			Context: map[string]any{
				"amount":  "125000",
				"targets": []any{"spreadsheet", "chat"},
				"source":  "crm",
			},
		}
		require.NoError(t, detector.TrackAction(a))
	}
	alert := d.DetectPattern()
	require.NotNil(t, alert)
	assert.Equal(t, "big-deal-chat+spreadsheet", alert.ID)

	assert.ErrorIs(t, detector.TrackAction(models.UserAction{Tool: "echo"}), ErrInvalidAction)
}
