package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"villaledger/internal/app/dto"
	"villaledger/internal/app/policies"
	"villaledger/internal/domain/reservations"
)

// maxResponseBytes caps how much of a spreadsheet answer is read.
const maxResponseBytes = 16 << 20

// Client talks to the spreadsheet web app that holds the canonical ledger.
// Reads return the whole dataset; writes post one action per call.
type Client struct {
	Endpoint string
	HTTP     *http.Client
	Now      func() time.Time
}

func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		Endpoint: strings.TrimSpace(endpoint),
		HTTP:     &http.Client{Timeout: timeout},
		Now:      time.Now,
	}
}

type saveRequest struct {
	dto.Reservation
	ID     string `json:"id"`
	Action string `json:"action"`
}

type deleteRequest struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	ID     int64  `json:"id"`
}

type actionResponse struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
}

func (c *Client) Load(ctx context.Context) (policies.RemoteDataset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint, nil)
	if err != nil {
		return policies.RemoteDataset{}, fmt.Errorf("%w: %v", policies.ErrRemoteStore, err)
	}
	req.Header.Set("Cache-Control", "no-store")
	status, body, err := c.do(req)
	if err != nil {
		return policies.RemoteDataset{}, err
	}
	if status < 200 || status >= 300 {
		return policies.RemoteDataset{}, fmt.Errorf("%w: load returned %d", policies.ErrRemoteStore, status)
	}
	if !json.Valid(body) {
		return policies.RemoteDataset{}, fmt.Errorf("%w: load returned invalid JSON", policies.ErrRemoteStore)
	}
	data, err := Normalize(body, c.now())
	if err != nil {
		return policies.RemoteDataset{}, fmt.Errorf("%w: %v", policies.ErrRemoteStore, err)
	}
	return data, nil
}

func (c *Client) Save(ctx context.Context, r *reservations.Reservation) error {
	if r == nil {
		return errors.New("sheets: nil reservation")
	}
	payload := saveRequest{
		Reservation: dto.MapReservation(r),
		ID:          strconv.FormatInt(int64(r.ID), 10),
		Action:      "save",
	}
	return c.post(ctx, payload)
}

func (c *Client) Delete(ctx context.Context, id reservations.ID) error {
	return c.post(ctx, deleteRequest{Type: reservations.Kind, Action: "delete", ID: int64(id)})
}

// post sends one action. Apps Script sometimes answers a successful write with
// an HTML page, so a 2xx answer that is not JSON is still a success.
func (c *Client) post(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", policies.ErrRemoteStore, err)
	}
	req.Header.Set("Content-Type", "application/json")
	status, respBody, err := c.do(req)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("%w: write returned %d", policies.ErrRemoteStore, status)
	}
	var resp actionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil
	}
	if resp.Error != "" {
		return fmt.Errorf("%w: %s", policies.ErrRemoteStore, resp.Error)
	}
	if resp.Success != nil && !*resp.Success {
		return fmt.Errorf("%w: write rejected", policies.ErrRemoteStore)
	}
	return nil
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	if c.Endpoint == "" {
		return 0, nil, fmt.Errorf("%w: endpoint not configured", policies.ErrRemoteStore)
	}
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", policies.ErrRemoteStore, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: read body: %v", policies.ErrRemoteStore, err)
	}
	return resp.StatusCode, body, nil
}

func (c *Client) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

var _ policies.RemoteStore = (*Client)(nil)
