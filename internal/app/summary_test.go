package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"troubadour_scheduler/internal/domain/digest"
)

func TestFallbackSummary(t *testing.T) {
	got := FallbackSummary(digest.CadenceWeekly, digest.MetricsSnapshot{
		ReviewsReceived: 3, NewProjects: 1, AverageScore: 7.46, TopGenre: "indie rock", StreakDays: 4,
	})
	assert.Equal(t, "This week you received 3 reviews and started 1 new project. Your average score was 7.5/10. Most of your activity was in indie rock. You're on a 4-day streak, keep it going!", got)
}

func TestFallbackSummary_StreakOnly(t *testing.T) {
	got := FallbackSummary(digest.CadenceMonthly, digest.MetricsSnapshot{StreakDays: 1})
	assert.Equal(t, "This month you received 0 reviews and started 0 new projects. You're on a 1-day streak, keep it going!", got)
}

func TestDigestTitle(t *testing.T) {
	assert.Equal(t, "Your weekly Troubadour digest", DigestTitle(digest.CadenceWeekly))
	assert.Equal(t, "Your biweekly Troubadour digest", DigestTitle(digest.CadenceBiweekly))
	assert.Equal(t, "Your monthly Troubadour digest", DigestTitle(digest.CadenceMonthly))
}

func TestEmailBody(t *testing.T) {
	body := emailBody(digest.Recipient{Name: "Sam"}, "Great week!", "https://app.example/dashboard")
	assert.Contains(t, body, "Hi Sam,")
	assert.Contains(t, body, "Great week!")
	assert.Contains(t, body, "https://app.example/dashboard")

	assert.Contains(t, emailBody(digest.Recipient{}, "x", "y"), "Hi there,")
}
