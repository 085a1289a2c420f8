package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// client talks to a running ptmtd over its HTTP API.
type client struct {
	base string
}

func (c *client) do(method, path string, body any) (json.RawMessage, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, strings.TrimRight(c.base, "/")+path, rdr)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	hc := &http.Client{Timeout: 30 * time.Second}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
			Code  int    `json:"code"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("%s (%d)", apiErr.Error, resp.StatusCode)
		}
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return raw, nil
}

func (c *client) print(raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		_, werr := os.Stdout.Write(raw)
		return werr
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(os.Stdout)
	return err
}

func (c *client) create(title, paperTitle string, keywords []string) error {
	raw, err := c.do(http.MethodPost, "/curriculums", map[string]any{
		"title":       title,
		"paper_title": paperTitle,
		"keywords":    keywords,
	})
	if err != nil {
		return err
	}
	return c.print(raw)
}

func (c *client) generate(id string) error {
	raw, err := c.do(http.MethodPost, "/curriculums/"+url.PathEscape(id)+"/generate", nil)
	if err != nil {
		return err
	}
	return c.print(raw)
}

func (c *client) status(id string) error {
	raw, err := c.do(http.MethodGet, "/curriculums/"+url.PathEscape(id)+"/status", nil)
	if err != nil {
		return err
	}
	return c.print(raw)
}

func (c *client) graph(id string) error {
	raw, err := c.do(http.MethodGet, "/curriculums/"+url.PathEscape(id)+"/graph", nil)
	if err != nil {
		return err
	}
	return c.print(raw)
}

func (c *client) queueStatus(taskID string) error {
	path := "/queue-status"
	if taskID != "" {
		path += "?task_id=" + url.QueryEscape(taskID) + "&task_type=curriculum_generation"
	}
	raw, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.print(raw)
}
