package authsdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ProfilePath is the backend endpoint returning the signed-in user's profile.
const ProfilePath = "/account/profile/me"

// maxProfileBytes caps how much of a profile response is read.
const maxProfileBytes = 1 << 20

// FetchProfile loads the profile for token. Non-2xx answers are returned as
// *StatusError.
func (c *APIClient) FetchProfile(ctx context.Context, token string) (map[string]any, error) {
	headers := http.Header{}
	headers.Set("Accept", "application/json")
	headers.Set("Authorization", "Bearer "+token)

	resp, err := c.doRequest(ctx, http.MethodGet, ProfilePath, nil, headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var profile map[string]any
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	if profile == nil {
		return nil, errors.New("profile response is not an object")
	}
	return profile, nil
}

// RefreshProfile fetches the backend profile for the current token and stores
// it as the user's Profile, replacing the previous one so fields the backend
// dropped do not linger. Identity and role fields are left as they are. If the session was cleared or replaced while the request was
// in flight nothing is written and ErrSessionChanged is returned.
func (s *SessionStore) RefreshProfile(ctx context.Context) (map[string]any, error) {
	if s.profiles == nil {
		return nil, nil
	}

	token, err := s.CurrentToken(ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, ErrNoSession
	}

	profile, err := s.profiles.FetchProfile(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}

	if err := s.mergeProfile(ctx, token, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *SessionStore) mergeProfile(ctx context.Context, token string, profile map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok, err := s.durable.Get(ctx, TokenKey)
	if err != nil {
		return err
	}
	if !ok || current != token {
		return ErrSessionChanged
	}

	raw, ok, err := s.durable.Get(ctx, UserKey)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSessionChanged
	}

	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return fmt.Errorf("failed to decode stored user: %w", err)
	}

	user.Profile = profile

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	return s.durable.Set(ctx, UserKey, string(data))
}

// enrichInBackground runs RefreshProfile detached from the caller so a slow
// backend never delays login. Failures are logged and dropped.
func (s *SessionStore) enrichInBackground(ctx context.Context, token string) {
	if s.profiles == nil {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.profileTimeout)
		defer cancel()

		if _, err := s.RefreshProfile(bg); err != nil {
			s.log.V(1).Info("profile enrichment skipped", "err", err.Error())
			return
		}
		s.log.V(1).Info("profile merged")
	}()
}
