package chainrepo

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"github.com/rentoken-xyz/rent-sell-nft-marketplace/model"
	"github.com/rentoken-xyz/rent-sell-nft-marketplace/util/httpx"
)

type httpRepo struct {
	baseURL    string
	apiKey     string
	hookSecret string
	client     *http.Client
}

func NewHTTP(baseURL, apiKey, hookSecret string) Repo {
	return &httpRepo{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		hookSecret: hookSecret,
		client:     httpx.Client(),
	}
}

func (r *httpRepo) call(ctx context.Context, path string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Message != "" {
			return fmt.Errorf("chain gateway %s: %s (%s)", path, apiErr.Message, resp.Status)
		}
		return fmt.Errorf("chain gateway %s: %s", path, resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (r *httpRepo) OwnerOf(ctx context.Context, nft model.Address, tokenID string) (model.Address, error) {
	var out struct {
		Owner model.Address `json:"owner"`
	}
	err := r.call(ctx, "/v1/nft/owner-of", map[string]any{
		"nft_address": nft, "token_id": tokenID,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Owner.Normalize(), nil
}

func (r *httpRepo) GetApproved(ctx context.Context, nft model.Address, tokenID string) (model.Address, error) {
	var out struct {
		Approved model.Address `json:"approved"`
	}
	err := r.call(ctx, "/v1/nft/get-approved", map[string]any{
		"nft_address": nft, "token_id": tokenID,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Approved.Normalize(), nil
}

func (r *httpRepo) IsApprovedForAll(ctx context.Context, nft, owner, operator model.Address) (bool, error) {
	var out struct {
		Approved bool `json:"approved"`
	}
	err := r.call(ctx, "/v1/nft/is-approved-for-all", map[string]any{
		"nft_address": nft, "owner": owner, "operator": operator,
	}, &out)
	return out.Approved, err
}

func (r *httpRepo) TransferFrom(ctx context.Context, nft, from, to model.Address, tokenID string) error {
	return r.call(ctx, "/v1/nft/transfer-from", map[string]any{
		"nft_address": nft, "from": from, "to": to, "token_id": tokenID,
	}, nil)
}

func (r *httpRepo) UserOf(ctx context.Context, nft model.Address, tokenID string) (model.Address, error) {
	var out struct {
		User model.Address `json:"user"`
	}
	err := r.call(ctx, "/v1/nft/user-of", map[string]any{
		"nft_address": nft, "token_id": tokenID,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.User.Normalize(), nil
}

func (r *httpRepo) SetUser(ctx context.Context, nft model.Address, tokenID string, user model.Address, expires int64) error {
	return r.call(ctx, "/v1/nft/set-user", map[string]any{
		"nft_address": nft, "token_id": tokenID, "user": user, "expires": expires,
	}, nil)
}

func (r *httpRepo) TransferToken(ctx context.Context, token, from, to model.Address, amount *big.Int) error {
	return r.call(ctx, "/v1/token/transfer-from", map[string]any{
		"token": token, "from": from, "to": to, "amount": amount.String(),
	}, nil)
}

func (r *httpRepo) SendNative(ctx context.Context, to model.Address, amount *big.Int) error {
	return r.call(ctx, "/v1/native/send", map[string]any{
		"to": to, "amount": amount.String(),
	}, nil)
}

// VerifyCallbackSignature checks the gateway's HMAC-SHA256 hex signature
// over the raw webhook body.
func (r *httpRepo) VerifyCallbackSignature(sigHeader string, rawBody []byte) error {
	if r.hookSecret == "" {
		return errors.New("chain hook secret not configured")
	}
	sig := strings.TrimSpace(sigHeader)
	if sig == "" {
		return errors.New("missing callback signature")
	}
	mac := hmac.New(sha256.New, []byte(r.hookSecret))
	mac.Write(rawBody)
	want := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(strings.ToLower(sig)), []byte(want)) {
		return errors.New("bad callback signature")
	}
	return nil
}
