package remote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"evaltool/internal/domain/evaluation"
)

const employeesPath = "/api/employees"

// Client talks to a remote store exposing GET/PUT /api/employees. Each call
// is a single attempt; failures are reported as evaluation.ErrRemoteUnavailable.
type Client struct {
	baseURL string
	token   string
	http    *fasthttp.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		http:    &fasthttp.Client{Name: "evaltool-sync"},
	}
}

func (c *Client) Fetch(ctx context.Context) ([]evaluation.Employee, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + employeesPath)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	if err := c.do(ctx, req, resp); err != nil {
		return nil, err
	}
	employees, err := evaluation.DecodeCollection(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", evaluation.ErrRemoteUnavailable, err)
	}
	return employees, nil
}

func (c *Client) Push(ctx context.Context, employees []evaluation.Employee) error {
	body, err := evaluation.EncodeCollection(employees)
	if err != nil {
		return fmt.Errorf("%w: %v", evaluation.ErrRemoteUnavailable, err)
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + employeesPath)
	req.Header.SetMethod(fasthttp.MethodPut)
	req.Header.SetContentType("application/json")
	c.authorize(req)
	req.SetBody(body)

	return c.do(ctx, req, resp)
}

func (c *Client) authorize(req *fasthttp.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (c *Client) do(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error {
	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.http.DoDeadline(req, resp, deadline)
	} else {
		err = c.http.Do(req, resp)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", evaluation.ErrRemoteUnavailable, err)
	}
	if status := resp.StatusCode(); status < 200 || status > 299 {
		return fmt.Errorf("%w: status %d", evaluation.ErrRemoteUnavailable, status)
	}
	return nil
}

// Probe reports whether the remote answers the GET contract, used by /readyz.
func (c *Client) Probe(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	_, err := c.Fetch(ctx)
	return err
}
