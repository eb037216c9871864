// Package webhookclient talks to the remote schedule endpoint: a
// single URL serving the whole dataset on GET and accepting the two
// assignment collections on POST.
package webhookclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/camp-scheduler/pkg/core/model"
)

const defaultMaxHours = 40

// Client implements gateway.ScheduleStore over the webhook endpoint
type Client struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a webhook client. A zero timeout means none,
// matching the endpoint's original consumers.
func NewClient(url string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Wire types. The endpoint uses capitalised assignment keys and keys
// assignments by staff display name.

type wireAssignment struct {
	Date          string `json:"Date"`
	StartTime     string `json:"StartTime"`
	EndTime       string `json:"EndTime"`
	AssignedStaff string `json:"AssignedStaff"`
}

type wireWindow struct {
	Day       string `json:"day"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type wireStaff struct {
	ID             string          `json:"id,omitempty"`
	Name           string          `json:"name"`
	Role           string          `json:"role,omitempty"`
	Qualifications json.RawMessage `json:"qualifications,omitempty"`
	MaxHours       *int            `json:"maxHours,omitempty"`
	WeeklyHourLim  *int            `json:"weeklyHourLimit,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	Availability   []wireWindow    `json:"availability,omitempty"`
}

type wirePayload struct {
	Elementary []wireAssignment `json:"elementary"`
	Middle     []wireAssignment `json:"middle"`
	Staff      []wireStaff      `json:"staff,omitempty"`
}

// Fetch reads the full dataset. The endpoint sometimes wraps the
// object in a one-element array; both shapes are accepted. Missing
// keys default to empty collections and staff records are normalized
// before anything downstream sees them.
func (c *Client) Fetch(ctx context.Context) (*model.ScheduleData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	payload, err := decodePayload(body)
	if err != nil {
		return nil, err
	}

	data := normalize(payload)
	c.logger.Debug("Fetched schedule data",
		zap.Int("elementary", len(data.Elementary)),
		zap.Int("middle", len(data.Middle)),
		zap.Int("staff", len(data.Staff)))
	return data, nil
}

// Persist writes the two assignment collections back. The staff roster
// in data is used only to map staff IDs back to the display names the
// wire format carries; it is never part of the POST body.
func (c *Client) Persist(ctx context.Context, data *model.ScheduleData) error {
	names := make(map[string]string, len(data.Staff))
	for _, s := range data.Staff {
		names[s.ID] = s.Name
	}

	payload := struct {
		Elementary []wireAssignment `json:"elementary"`
		Middle     []wireAssignment `json:"middle"`
	}{
		Elementary: toWire(data.Elementary, names),
		Middle:     toWire(data.Middle, names),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

// DecodeDataset parses a raw wire-format dataset (the same shape the
// endpoint serves) into normalized schedule data. Used for fixed
// fallback datasets loaded from disk.
func DecodeDataset(body []byte) (*model.ScheduleData, error) {
	payload, err := decodePayload(body)
	if err != nil {
		return nil, err
	}
	return normalize(payload), nil
}

func decodePayload(body []byte) (*wirePayload, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var wrapped []wirePayload
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		if len(wrapped) == 0 {
			return &wirePayload{}, nil
		}
		return &wrapped[0], nil
	}

	var payload wirePayload
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &payload, nil
}

func normalize(payload *wirePayload) *model.ScheduleData {
	staff := make([]model.Staff, 0, len(payload.Staff))
	nameToID := make(map[string]string, len(payload.Staff))

	for _, w := range payload.Staff {
		s := model.Staff{
			ID:             w.ID,
			Name:           w.Name,
			Role:           w.Role,
			Qualifications: coerceQualifications(w.Qualifications),
			MaxHours:       resolveMaxHours(w.MaxHours, w.WeeklyHourLim),
			Notes:          w.Notes,
		}
		if s.ID == "" {
			s.ID = uuid.New().String()
		}
		// nil means "no availability data" (always available); a
		// present-but-empty list means "never available" and must
		// survive normalization as an empty slice
		if w.Availability != nil {
			s.Availability = make([]model.AvailabilityWindow, 0, len(w.Availability))
		}
		for _, win := range w.Availability {
			s.Availability = append(s.Availability, model.AvailabilityWindow{
				Day:       win.Day,
				StartTime: win.StartTime,
				EndTime:   win.EndTime,
			})
		}
		if _, exists := nameToID[s.Name]; !exists {
			nameToID[s.Name] = s.ID
		}
		staff = append(staff, s)
	}

	return &model.ScheduleData{
		Elementary: fromWire(payload.Elementary, nameToID),
		Middle:     fromWire(payload.Middle, nameToID),
		Staff:      staff,
	}
}

func fromWire(assignments []wireAssignment, nameToID map[string]string) []model.Assignment {
	out := make([]model.Assignment, 0, len(assignments))
	for _, w := range assignments {
		staffID, ok := nameToID[w.AssignedStaff]
		if !ok {
			// name not in the roster; keep it as-is so it still
			// round-trips on save
			staffID = w.AssignedStaff
		}
		out = append(out, model.Assignment{
			ID:        uuid.New().String(),
			Date:      cleanDate(w.Date),
			StartTime: w.StartTime,
			EndTime:   w.EndTime,
			StaffID:   staffID,
		})
	}
	return out
}

func toWire(assignments []model.Assignment, names map[string]string) []wireAssignment {
	out := make([]wireAssignment, 0, len(assignments))
	for _, a := range assignments {
		name, ok := names[a.StaffID]
		if !ok {
			name = a.StaffID
		}
		out = append(out, wireAssignment{
			Date:          a.Date,
			StartTime:     a.StartTime,
			EndTime:       a.EndTime,
			AssignedStaff: name,
		})
	}
	return out
}

// cleanDate strips a trailing T... suffix from dates the endpoint
// occasionally serialises as full timestamps
func cleanDate(date string) string {
	if i := strings.IndexByte(date, 'T'); i >= 0 {
		return date[:i]
	}
	return date
}

// coerceQualifications tolerates non-list shapes by treating them as
// no qualifications
func coerceQualifications(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var quals []string
	if err := json.Unmarshal(raw, &quals); err != nil {
		return []string{}
	}
	return quals
}

func resolveMaxHours(maxHours, weeklyLimit *int) int {
	if maxHours != nil {
		return *maxHours
	}
	if weeklyLimit != nil {
		return *weeklyLimit
	}
	return defaultMaxHours
}
