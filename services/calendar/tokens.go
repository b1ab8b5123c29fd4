package calendar

import (
	"context"
	"fmt"
	"time"

	doctorRepo "bettermind/database/repository/doctor"
	"bettermind/models"
	"bettermind/utils"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
)

// DefaultRefreshWindow is how close to expiry a token may get before it is refreshed.
const DefaultRefreshWindow = 5 * time.Minute

// TokenRefresher exchanges a refresh token for a new access token.
type TokenRefresher interface {
	Refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error)
}

// OAuthRefresher refreshes tokens through an oauth2 client configuration.
// Each refresh is bounded by Timeout, 10s when unset.
type OAuthRefresher struct {
	Config  *oauth2.Config
	Timeout time.Duration
}

// NewGoogleOAuthConfig returns the OAuth client used for doctors' Google calendars.
func NewGoogleOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gcal.CalendarScope},
	}
}

func (r *OAuthRefresher) Refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// An empty access token makes the token source go straight to the refresh grant.
	stale := *token
	stale.AccessToken = ""
	fresh, err := r.Config.TokenSource(ctx, &stale).Token()
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}
	return fresh, nil
}

// TokenManager hands out valid calendar tokens for doctors, refreshing and
// persisting them when they are close to expiry.
type TokenManager struct {
	Doctors       doctorRepo.DoctorRepository
	Refresher     TokenRefresher
	RefreshWindow time.Duration
	Logger        *zap.Logger
	Now           func() time.Time
}

// NewTokenManager wires a TokenManager with the default refresh window.
func NewTokenManager(doctors doctorRepo.DoctorRepository, refresher TokenRefresher) *TokenManager {
	return &TokenManager{
		Doctors:       doctors,
		Refresher:     refresher,
		RefreshWindow: DefaultRefreshWindow,
		Logger:        utils.GetLogger(),
		Now:           time.Now,
	}
}

// EnsureValid returns a token for the doctor's calendar that is good for at
// least the refresh window.
func (m *TokenManager) EnsureValid(ctx context.Context, doctor *models.Doctor) (*oauth2.Token, error) {
	if !doctor.HasCalendar() {
		return nil, fmt.Errorf("%w: doctor %s has no connected calendar", ErrCalendarUnavailable, doctor.ID)
	}

	creds := doctor.Calendar
	token := &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		TokenType:    creds.TokenType,
		Expiry:       creds.Expiry,
	}
	if token.AccessToken != "" && m.Now().Add(m.RefreshWindow).Before(token.Expiry) {
		return token, nil
	}

	fresh, err := m.Refresher.Refresh(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCalendarUnavailable, err)
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = token.RefreshToken
	}

	updated := models.CalendarCredentials{
		AccessToken:  fresh.AccessToken,
		RefreshToken: fresh.RefreshToken,
		TokenType:    fresh.TokenType,
		Expiry:       fresh.Expiry,
	}
	doctor.Calendar = &updated
	if err := m.Doctors.UpdateCalendarCredentials(ctx, doctor.ID, updated); err != nil {
		// The refreshed token is still usable for this request.
		m.Logger.Warn("failed to persist refreshed calendar token",
			zap.String("doctorID", doctor.ID), zap.Error(err))
	}
	return fresh, nil
}
