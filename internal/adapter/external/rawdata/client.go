package rawdata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/voltgrid/console/internal/domain"
)

// HTTPDoer defines http.Client interface subset.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Config configures the raw data listing client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client lists raw stations, sessions and payments from the platform API.
// It is one of the two interchangeable raw data sources behind the source
// ports; the other is the PostgreSQL repository set.
type Client struct {
	baseURL string
	http    HTTPDoer
	timeout time.Duration
	log     *zap.Logger
}

// NewClient builds the listing client. A nil doer gets a default
// http.Client; a zero timeout defaults to 30 seconds.
func NewClient(cfg Config, doer HTTPDoer, log *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if doer == nil {
		doer = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    doer,
		timeout: cfg.Timeout,
		log:     log,
	}
}

type stationRecord struct {
	ID         int64          `json:"id"`
	Name       string         `json:"name"`
	Status     string         `json:"status"`
	Region     string         `json:"region"`
	Area       string         `json:"area"`
	City       string         `json:"city"`
	Address    string         `json:"address"`
	Location   domain.JSONMap `json:"location"`
	Chargers   int            `json:"chargers"`
	MaxPowerKW float64        `json:"maxPower"`
}

type sessionRecord struct {
	ID        string             `json:"id"`
	StationID int64              `json:"stationId"`
	UserID    string             `json:"userId"`
	StartTime time.Time          `json:"startTime"`
	EndTime   *time.Time         `json:"endTime"`
	EnergyKWh float64            `json:"energyConsumed"`
	Status    domain.StatusValue `json:"status"`
	CreatedAt time.Time          `json:"createdAt"`
}

type paymentRecord struct {
	ID            string             `json:"id"`
	UserID        string             `json:"userId"`
	SessionID     string             `json:"sessionId"`
	Amount        float64            `json:"amount"`
	Status        domain.StatusValue `json:"status"`
	PaymentStatus domain.StatusValue `json:"paymentStatus"`
	PaymentTime   *time.Time         `json:"paymentTime"`
	CreatedAt     time.Time          `json:"createdAt"`
}

// ListStations implements ports.StationDirectory.
func (c *Client) ListStations(ctx context.Context) ([]domain.Station, error) {
	var records []stationRecord
	if err := c.getList(ctx, "/stations", nil, &records); err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}
	stations := make([]domain.Station, 0, len(records))
	for _, r := range records {
		stations = append(stations, domain.Station{
			ID:         r.ID,
			Name:       r.Name,
			Status:     domain.StationStatus(r.Status),
			Region:     r.Region,
			Area:       r.Area,
			City:       r.City,
			Address:    r.Address,
			Location:   r.Location,
			Chargers:   r.Chargers,
			MaxPowerKW: r.MaxPowerKW,
		})
	}
	return stations, nil
}

// ListSessions implements ports.SessionSource.
func (c *Client) ListSessions(ctx context.Context, from, to time.Time) ([]domain.ChargingSession, error) {
	var records []sessionRecord
	if err := c.getList(ctx, "/sessions", rangeQuery(from, to), &records); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	sessions := make([]domain.ChargingSession, 0, len(records))
	for _, r := range records {
		sessions = append(sessions, domain.ChargingSession{
			ID:        r.ID,
			StationID: r.StationID,
			UserID:    r.UserID,
			StartTime: r.StartTime,
			EndTime:   r.EndTime,
			EnergyKWh: r.EnergyKWh,
			Status:    r.Status,
			CreatedAt: r.CreatedAt,
		})
	}
	return sessions, nil
}

// ListPayments implements ports.PaymentSource.
func (c *Client) ListPayments(ctx context.Context, from, to time.Time) ([]domain.Payment, error) {
	var records []paymentRecord
	if err := c.getList(ctx, "/payments", rangeQuery(from, to), &records); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	payments := make([]domain.Payment, 0, len(records))
	for _, r := range records {
		payments = append(payments, domain.Payment{
			ID:            r.ID,
			UserID:        r.UserID,
			SessionID:     r.SessionID,
			Amount:        r.Amount,
			Status:        r.Status,
			PaymentStatus: r.PaymentStatus,
			PaymentTime:   r.PaymentTime,
			CreatedAt:     r.CreatedAt,
		})
	}
	return payments, nil
}

func (c *Client) getList(ctx context.Context, path string, query url.Values, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("request %s: unexpected status %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}
	if err := decodeListing(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// decodeListing accepts both listing shapes the platform serves: a bare JSON
// array and a paginated envelope with a content field.
func decodeListing(data []byte, out interface{}) error {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, out)
	}

	var envelope struct {
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return err
	}
	if envelope.Content == nil {
		return errors.New("listing envelope has no content field")
	}
	return json.Unmarshal(envelope.Content, out)
}

func rangeQuery(from, to time.Time) url.Values {
	q := url.Values{}
	q.Set("from", from.Format(time.RFC3339))
	q.Set("to", to.Format(time.RFC3339))
	return q
}
