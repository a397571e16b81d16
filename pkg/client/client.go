// Package client provides a Go client for the launchcache API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client is a launchcache API client
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// New creates a new launchcache client
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Launch is one launch with its derived status
type Launch struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Details      *string `json:"details,omitempty"`
	Upcoming     bool    `json:"upcoming"`
	Success      *bool   `json:"success"`
	DateUTC      string  `json:"dateUtc"`
	DateUnix     int64   `json:"dateUnix"`
	RocketID     string  `json:"rocket"`
	FlightNumber int     `json:"flightNumber"`
	Cores        []Core  `json:"cores"`
	Links        Links   `json:"links"`
	Status       string  `json:"status"`
}

// Core is a booster core flown on a launch
type Core struct {
	Core           *string `json:"core,omitempty"`
	Flight         *int    `json:"flight,omitempty"`
	Reused         *bool   `json:"reused,omitempty"`
	LandingAttempt *bool   `json:"landingAttempt,omitempty"`
	LandingSuccess *bool   `json:"landingSuccess,omitempty"`
}

// Links are the media links of a launch
type Links struct {
	PatchSmall *string `json:"patchSmall,omitempty"`
	PatchLarge *string `json:"patchLarge,omitempty"`
	Webcast    *string `json:"webcast,omitempty"`
	Wikipedia  *string `json:"wikipedia,omitempty"`
	Article    *string `json:"article,omitempty"`
}

// LaunchDetail adds the day counters of the detail endpoint
type LaunchDetail struct {
	Launch
	DaysSince int `json:"daysSince"`
	DaysUntil int `json:"daysUntil"`
}

// LaunchPage is one page of launches
type LaunchPage struct {
	Launches    []Launch `json:"launches"`
	TotalCount  int      `json:"totalCount"`
	CurrentPage int      `json:"currentPage"`
	TotalPages  int      `json:"totalPages"`
	HasNextPage bool     `json:"hasNextPage"`
	HasPrevPage bool     `json:"hasPrevPage"`
	PageSize    int      `json:"pageSize"`
	Sort        string   `json:"sort"`
	Filter      string   `json:"filter"`
}

// ListLaunchesOptions selects a page of launches. Zero values use the
// server defaults
type ListLaunchesOptions struct {
	Page    int
	Limit   int
	Sort    string // date_asc, date_desc, name_asc or name_desc
	Years   []int
	Success string // all, successful or failed
	Refresh bool
}

func (o ListLaunchesOptions) query() url.Values {
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Sort != "" {
		q.Set("sort", o.Sort)
	}
	for _, y := range o.Years {
		q.Add("year", strconv.Itoa(y))
	}
	if o.Success != "" {
		q.Set("success", o.Success)
	}
	if o.Refresh {
		q.Set("refresh", "true")
	}
	return q
}

// Rocket is a launch vehicle with its display strings
type Rocket struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	Active             bool     `json:"active"`
	CostPerLaunch      *int64   `json:"costPerLaunch,omitempty"`
	SuccessRatePct     int      `json:"successRatePct"`
	FlickrImages       []string `json:"flickrImages"`
	Wikipedia          string   `json:"wikipedia"`
	CostDisplay        string   `json:"costDisplay"`
	SuccessRateDisplay string   `json:"successRateDisplay"`
}

// Company is the company record with its display strings
type Company struct {
	Name         string `json:"name"`
	Founder      string `json:"founder"`
	Founded      int    `json:"founded"`
	Employees    int    `json:"employees"`
	CEO          string `json:"ceo"`
	Valuation    int64  `json:"valuation"`
	Headquarters struct {
		Address string `json:"address"`
		City    string `json:"city"`
		State   string `json:"state"`
	} `json:"headquarters"`
	Links struct {
		Website     string `json:"website"`
		Flickr      string `json:"flickr,omitempty"`
		Twitter     string `json:"twitter"`
		ElonTwitter string `json:"elonTwitter,omitempty"`
	} `json:"links"`
	Summary          string `json:"summary"`
	ValuationDisplay string `json:"valuationDisplay"`
	Description      string `json:"description"`
}

// Filter narrows a launch listing
type Filter struct {
	Years         []int  `json:"years"`
	SuccessStatus string `json:"successStatus,omitempty"`
}

// LaunchPreferences is the saved sort and filter of the launch list
type LaunchPreferences struct {
	SortOption    string `json:"sortOption"`
	Filter        Filter `json:"filter"`
	SortDisplay   string `json:"sortDisplay,omitempty"`
	FilterDisplay string `json:"filterDisplay,omitempty"`
}

// ReadyStatus is the body of the readiness probe
type ReadyStatus struct {
	Status   string            `json:"status"`
	Checks   map[string]string `json:"checks"`
	Upstream string            `json:"upstream"`
}

// APIError represents an API error response
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Icon       string `json:"icon"`
	Color      string `json:"color"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsCode reports whether err is an APIError with the given code
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// ListLaunches returns one page of launches
func (c *Client) ListLaunches(ctx context.Context, opts ListLaunchesOptions) (*LaunchPage, error) {
	path := "/api/v1/launches"
	if q := opts.query().Encode(); q != "" {
		path += "?" + q
	}
	var resp LaunchPage
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetLaunchYears returns the years with launches, newest first
func (c *Client) GetLaunchYears(ctx context.Context) ([]int, error) {
	var resp struct {
		Years []int `json:"years"`
	}
	if err := c.get(ctx, "/api/v1/launches/years", &resp); err != nil {
		return nil, err
	}
	return resp.Years, nil
}

// GetLaunch returns a cached launch by id
func (c *Client) GetLaunch(ctx context.Context, id string) (*LaunchDetail, error) {
	var resp LaunchDetail
	if err := c.get(ctx, "/api/v1/launches/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetRocketNames resolves rocket ids to names. With no ids every known
// name is returned
func (c *Client) GetRocketNames(ctx context.Context, ids []string, refresh bool) (map[string]string, error) {
	q := url.Values{}
	if len(ids) > 0 {
		q.Set("ids", strings.Join(ids, ","))
	}
	if refresh {
		q.Set("refresh", "true")
	}
	path := "/api/v1/rockets/names"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp struct {
		Names map[string]string `json:"names"`
	}
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Names, nil
}

// GetRocket returns a rocket by id
func (c *Client) GetRocket(ctx context.Context, id string) (*Rocket, error) {
	var resp Rocket
	if err := c.get(ctx, "/api/v1/rockets/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetCompany returns the company record
func (c *Client) GetCompany(ctx context.Context, refresh bool) (*Company, error) {
	path := "/api/v1/company"
	if refresh {
		path += "?refresh=true"
	}
	var resp Company
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetLaunchPreferences returns the saved launch list preferences
func (c *Client) GetLaunchPreferences(ctx context.Context) (*LaunchPreferences, error) {
	var resp LaunchPreferences
	if err := c.get(ctx, "/api/v1/preferences/launches", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetLaunchPreferences saves the launch list preferences and returns them
// as stored
func (c *Client) SetLaunchPreferences(ctx context.Context, prefs LaunchPreferences) (*LaunchPreferences, error) {
	body := LaunchPreferences{SortOption: prefs.SortOption, Filter: prefs.Filter}
	var resp LaunchPreferences
	if err := c.send(ctx, http.MethodPut, "/api/v1/preferences/launches", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ready returns the readiness report. A not-ready server still yields a
// report alongside the error
func (c *Client) Ready(ctx context.Context) (*ReadyStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/readyz", nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var status ReadyStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return &status, fmt.Errorf("server not ready: %s", status.Status)
	}
	return &status, nil
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	return c.do(req, result)
}

func (c *Client) send(ctx context.Context, method, path string, body, result any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, result)
}

func (c *Client) do(req *http.Request, result any) error {
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.parseError(resp)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
}

func (c *Client) parseError(resp *http.Response) error {
	var errResp struct {
		Error APIError `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil || errResp.Error.Code == "" {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	errResp.Error.StatusCode = resp.StatusCode
	return &errResp.Error
}
