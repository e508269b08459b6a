// Package client talks to the scanner's management API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/project-copacetic/nessus/pkg/errdefs"
	"github.com/project-copacetic/nessus/pkg/report"
)

const (
	apiKeysHeader = "X-ApiKeys"
	formatNessus  = "nessus"
)

// Client is a scanner API client authenticated with an API key pair.
type Client struct {
	host   *url.URL
	token  string
	secret string
	hc     *http.Client
}

type Option func(*Client)

// WithHTTPClient sets the HTTP client requests are sent with.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.hc = hc
	}
}

// New returns a client for the scanner at host, an absolute URL such as
// https://nessus.example.com:8834.
func New(host, token, secret string, opts ...Option) (*Client, error) {
	u, err := url.Parse(host)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid host %q", host)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("invalid host %q: must be an absolute URL", host)
	}

	c := &Client{
		host:   u,
		token:  token,
		secret: secret,
		hc:     http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) apiKeys() string {
	return fmt.Sprintf("accessKey=%s; secretKey=%s", c.token, c.secret)
}

func (c *Client) endpoint(path string, query url.Values) string {
	ref := &url.URL{Path: path}
	if len(query) > 0 {
		ref.RawQuery = query.Encode()
	}
	return c.host.ResolveReference(ref).String()
}

// do sends one request and returns the response body. Only 200 and 201 count
// as success.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in any) ([]byte, error) {
	op := method + " " + path

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: marshal request", op)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return nil, errdefs.Transport(op, err)
	}
	req.Header.Set(apiKeysHeader, c.apiKeys())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, errdefs.Transport(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errdefs.Transport(op, errors.Wrap(err, "read response body"))
	}
	log.Debugf("%s: %s (%d bytes)", op, resp.Status, len(data))

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, errdefs.Status(op, &errdefs.StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Header:     resp.Header.Clone(),
			Body:       data,
		})
	}
	return data, nil
}

func (c *Client) call(ctx context.Context, method, path string, query url.Values, in, out any) error {
	data, err := c.do(ctx, method, path, query, in)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errdefs.Parse(method+" "+path, errors.Wrap(err, "decode response"))
	}
	return nil
}

func scanPath(id uint64, parts ...string) string {
	p := "/scans/" + strconv.FormatUint(id, 10)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

func (c *Client) ListPolicies(ctx context.Context) (*PolicyResponse, error) {
	var out PolicyResponse
	if err := c.call(ctx, http.MethodGet, "/editor/policy/templates", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateScan creates a scan from the policy template templateUUID.
func (c *Client) CreateScan(ctx context.Context, templateUUID string, settings ScanSettings) (*CreateScanResponse, error) {
	var out CreateScanResponse
	req := CreateScanRequest{UUID: templateUUID, Settings: settings}
	if err := c.call(ctx, http.MethodPost, "/scans", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConfigureScan updates the settings of an existing scan. templateUUID may be
// nil to keep the current template.
func (c *Client) ConfigureScan(ctx context.Context, scanID uint64, templateUUID *string, settings ScanSettingsUpdate) (*UpdateScanResponse, error) {
	var out UpdateScanResponse
	req := UpdateScanRequest{UUID: templateUUID, Settings: settings}
	if err := c.call(ctx, http.MethodPut, scanPath(scanID), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LaunchScan starts a run of the scan. The returned handle can be waited on.
func (c *Client) LaunchScan(ctx context.Context, id uint64) (*ScanLaunch, error) {
	var out ScanLaunch
	if err := c.call(ctx, http.MethodPost, scanPath(id, "launch"), nil, nil, &out); err != nil {
		return nil, err
	}
	out.ScanID = id
	log.Infof("Launched scan %d (run %s)", id, out.ScanUUID)
	return &out, nil
}

func (c *Client) StopScan(ctx context.Context, id uint64) error {
	return c.call(ctx, http.MethodPost, scanPath(id, "stop"), nil, nil, nil)
}

func (c *Client) PauseScan(ctx context.Context, id uint64) error {
	return c.call(ctx, http.MethodPost, scanPath(id, "pause"), nil, nil, nil)
}

func (c *Client) ResumeScan(ctx context.Context, id uint64) error {
	return c.call(ctx, http.MethodPost, scanPath(id, "resume"), nil, nil, nil)
}

func (c *Client) DeleteScan(ctx context.Context, id uint64) error {
	return c.call(ctx, http.MethodDelete, scanPath(id), nil, nil, nil)
}

// ScanDetails returns the status and results summary of a scan. Collections
// missing from the response are returned empty.
func (c *Client) ScanDetails(ctx context.Context, id uint64) (*ScanDetails, error) {
	var out ScanDetails
	if err := c.call(ctx, http.MethodGet, scanPath(id), nil, nil, &out); err != nil {
		return nil, err
	}
	out.normalize()
	return &out, nil
}

func (c *Client) ListScans(ctx context.Context) (*ScanList, error) {
	var out ScanList
	if err := c.call(ctx, http.MethodGet, "/scans", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListScanFolder lists the scans of one folder. Older servers ignore the
// folder_id filter, so the result is also filtered here.
func (c *Client) ListScanFolder(ctx context.Context, folderID uint64) (*ScanList, error) {
	var all ScanList
	query := url.Values{"folder_id": []string{strconv.FormatUint(folderID, 10)}}
	if err := c.call(ctx, http.MethodGet, "/scans", query, nil, &all); err != nil {
		return nil, err
	}

	out := &ScanList{Timestamp: all.Timestamp}
	for _, f := range all.Folders {
		if f.ID == folderID {
			out.Folders = append(out.Folders, f)
		}
	}
	for _, s := range all.Scans {
		if s.FolderID == folderID {
			out.Scans = append(out.Scans, s)
		}
	}
	return out, nil
}

// ExportScan requests a .nessus export of the scan's latest results.
func (c *Client) ExportScan(ctx context.Context, scanID uint64) (*ExportToken, error) {
	return c.ExportScanAs(ctx, scanID, formatNessus)
}

// ExportScanAs requests an export in the given format (nessus, csv, html,
// pdf or db).
func (c *Client) ExportScanAs(ctx context.Context, scanID uint64, format string) (*ExportToken, error) {
	var out ExportToken
	req := map[string]string{"format": format}
	if err := c.call(ctx, http.MethodPost, scanPath(scanID, "export"), nil, req, &out); err != nil {
		return nil, err
	}
	out.ScanID = scanID
	log.Debugf("Export %d of scan %d requested (%s)", out.File, scanID, format)
	return &out, nil
}

func (c *Client) ExportStatus(ctx context.Context, scanID, fileID uint64) (*ExportStatus, error) {
	var out ExportStatus
	path := scanPath(scanID, "export", strconv.FormatUint(fileID, 10), "status")
	if err := c.call(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DownloadExportRaw returns the export file as sent by the server.
func (c *Client) DownloadExportRaw(ctx context.Context, scanID, fileID uint64) ([]byte, error) {
	path := scanPath(scanID, "export", strconv.FormatUint(fileID, 10), "download")
	return c.do(ctx, http.MethodGet, path, nil, nil)
}

// DownloadExport downloads a .nessus export and parses it.
func (c *Client) DownloadExport(ctx context.Context, scanID, fileID uint64) (*report.NessusClientData, error) {
	data, err := c.DownloadExportRaw(ctx, scanID, fileID)
	if err != nil {
		return nil, err
	}
	return report.Parse(data)
}
