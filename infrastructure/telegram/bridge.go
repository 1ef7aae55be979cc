// Package telegram implements the delivery adapter against an MTProto
// bridge process. The bridge owns the actual Telegram protocol session;
// this side only speaks JSON over HTTP to it.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domainDelivery "github.com/pmcostaxyz/telegram-chat/domains/delivery"
	"github.com/valyala/fasthttp"
)

type Bridge struct {
	baseURL string
	client  *fasthttp.Client
	timeout time.Duration
}

func NewBridge(baseURL string) *Bridge {
	return &Bridge{
		baseURL: baseURL,
		client: &fasthttp.Client{
			MaxConnsPerHost: 16,
		},
		timeout: 30 * time.Second,
	}
}

type bridgeError struct {
	path    string
	status  int
	message string
}

func (e *bridgeError) Error() string {
	return fmt.Sprintf("bridge %s: %s", e.path, e.message)
}

func (b *Bridge) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(b.baseURL + path)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	timeout := b.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	if err := b.client.DoTimeout(req, resp, timeout); err != nil {
		return fmt.Errorf("bridge request %s: %w", path, err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(resp.Body(), &apiErr)
		if apiErr.Message == "" {
			apiErr.Message = fmt.Sprintf("status %d", resp.StatusCode())
		}
		return &bridgeError{path: path, status: resp.StatusCode(), message: apiErr.Message}
	}
	if out != nil {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("bridge %s: decode response: %w", path, err)
		}
	}
	return nil
}

func (b *Bridge) RequestCode(ctx context.Context, apiID, apiHash, phoneNumber string) (string, error) {
	var result struct {
		PhoneCodeHash string `json:"phone_code_hash"`
	}
	err := b.post(ctx, "/auth/send-code", map[string]string{
		"api_id":       apiID,
		"api_hash":     apiHash,
		"phone_number": phoneNumber,
	}, &result)
	if err != nil {
		return "", err
	}
	return result.PhoneCodeHash, nil
}

func (b *Bridge) Connect(ctx context.Context, session domainDelivery.Session) (domainDelivery.Conn, error) {
	var result struct {
		ConnectionID string `json:"connection_id"`
	}
	err := b.post(ctx, "/connect", map[string]string{
		"api_id":        session.APIID,
		"api_hash":      session.APIHash,
		"phone_number":  session.PhoneNumber,
		"session_token": session.SessionToken,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &bridgeConn{bridge: b, connectionID: result.ConnectionID}, nil
}

type bridgeConn struct {
	bridge       *Bridge
	connectionID string
}

func (c *bridgeConn) Send(ctx context.Context, recipient, text string) error {
	return c.bridge.post(ctx, "/messages/send", map[string]string{
		"connection_id": c.connectionID,
		"recipient":     recipient,
		"text":          text,
	}, nil)
}

func (c *bridgeConn) VerifyCode(ctx context.Context, code, codeHash string) (domainDelivery.VerifyOutcome, error) {
	var result struct {
		SessionToken      string `json:"session_token"`
		TwoFactorRequired bool   `json:"two_factor_required"`
	}
	err := c.bridge.post(ctx, "/auth/sign-in", map[string]string{
		"connection_id":   c.connectionID,
		"code":            code,
		"phone_code_hash": codeHash,
	}, &result)
	if err != nil {
		// The bridge answers 400/401 when Telegram refuses the code
		// (PHONE_CODE_INVALID, PHONE_CODE_EXPIRED); anything else is a
		// transport or gateway failure.
		var be *bridgeError
		if errors.As(err, &be) && (be.status == fasthttp.StatusBadRequest || be.status == fasthttp.StatusUnauthorized) {
			return domainDelivery.VerifyOutcome{}, fmt.Errorf("%w: %s", domainDelivery.ErrCodeRejected, be.message)
		}
		return domainDelivery.VerifyOutcome{}, err
	}
	return domainDelivery.VerifyOutcome{
		SessionToken:      result.SessionToken,
		TwoFactorRequired: result.TwoFactorRequired,
	}, nil
}

func (c *bridgeConn) Disconnect() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.bridge.post(ctx, "/disconnect", map[string]string{
		"connection_id": c.connectionID,
	}, nil)
}
