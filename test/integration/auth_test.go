//go:build integration

package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type authData struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
	Tokens struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	} `json:"tokens"`
}

func unmarshalAuth(t *testing.T, raw []byte) authData {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v body=%s", err, string(raw))
	}
	if !env.Success {
		t.Fatalf("expected success envelope, body=%s", string(raw))
	}
	var data authData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("unmarshal auth data: %v body=%s", err, string(raw))
	}
	return data
}

func authBody(email, password string, extra map[string]string) []byte {
	m := map[string]string{"email": email, "password": password}
	for k, v := range extra {
		m[k] = v
	}
	b, _ := json.Marshal(m)
	return b
}

func TestAuth_FullLifecycle(t *testing.T) {
	cfg := LoadCfg()
	WaitHealthz(t, cfg.HealthURL, 60*time.Second)

	db := DBOpen(t, cfg.DBDSN)
	defer db.Close()

	email := fmt.Sprintf("it-%d@example.com", time.Now().UnixNano())
	defer CleanupUser(t, db, email)

	base := cfg.BaseURL + cfg.AuthPrefix

	regResp := HTTPDoJSON(t, http.MethodPost, base+"/register",
		authBody(email, "supersecret", map[string]string{"name": "IT User"}), "", 201)
	reg := unmarshalAuth(t, regResp)
	t.Logf("[register] user=%s tokens=%d/%d", reg.User.Email, len(reg.Tokens.AccessToken), len(reg.Tokens.RefreshToken))

	meResp := HTTPDoJSON(t, http.MethodGet, base+"/me", nil, reg.Tokens.AccessToken, 200)
	t.Logf("[me] body=%s", string(meResp))

	refreshBody, _ := json.Marshal(map[string]string{"refreshToken": reg.Tokens.RefreshToken})
	refResp := HTTPDoJSON(t, http.MethodPost, base+"/refresh", refreshBody, "", 200)
	next := unmarshalAuth(t, refResp)
	if next.Tokens.RefreshToken == reg.Tokens.RefreshToken {
		t.Fatalf("refresh did not rotate the token")
	}

	// The consumed token must be rejected and take the family with it.
	HTTPDoJSON(t, http.MethodPost, base+"/refresh", refreshBody, "", 401)

	nextBody, _ := json.Marshal(map[string]string{"refreshToken": next.Tokens.RefreshToken})
	HTTPDoJSON(t, http.MethodPost, base+"/refresh", nextBody, "", 401)

	if n := CountTokens(t, db, email, false); n != 0 {
		t.Fatalf("expected no live tokens after reuse detection, got %d", n)
	}
}

func TestAuth_LoginAndLogout(t *testing.T) {
	cfg := LoadCfg()
	WaitHealthz(t, cfg.HealthURL, 60*time.Second)

	db := DBOpen(t, cfg.DBDSN)
	defer db.Close()

	email := fmt.Sprintf("it-lo-%d@example.com", time.Now().UnixNano())
	defer CleanupUser(t, db, email)

	base := cfg.BaseURL + cfg.AuthPrefix

	HTTPDoJSON(t, http.MethodPost, base+"/register",
		authBody(email, "supersecret", map[string]string{"name": "IT User"}), "", 201)

	HTTPDoJSON(t, http.MethodPost, base+"/login", authBody(email, "wrong-password", nil), "", 401)

	loginResp := HTTPDoJSON(t, http.MethodPost, base+"/login", authBody(email, "supersecret", nil), "", 200)
	login := unmarshalAuth(t, loginResp)

	HTTPDoJSON(t, http.MethodPost, base+"/logout", nil, login.Tokens.AccessToken, 200)

	refreshBody, _ := json.Marshal(map[string]string{"refreshToken": login.Tokens.RefreshToken})
	HTTPDoJSON(t, http.MethodPost, base+"/refresh", refreshBody, "", 401)

	if n := CountTokens(t, db, email, false); n != 0 {
		t.Fatalf("expected all tokens revoked after logout, got %d live", n)
	}
}
