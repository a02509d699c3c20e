package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func logAndParse(t *testing.T, attrs ...any) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(NewRedactingHandler(slog.NewJSONHandler(&buf, nil)))
	logger.Info("wbem operation", attrs...)

	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("log output is not JSON: %v\n%s", err, buf.String())
	}
	return out
}

func TestConnectionSecretsAreRedacted(t *testing.T) {
	out := logAndParse(t,
		"password", "town",
		"Authorization", "Basic ZnJpdHo6dG93bg==",
		"method", "GetInstance",
		"namespace", "root/cimv2",
	)

	if out["password"] != redactedPlaceholder {
		t.Errorf("password leaked: %v", out["password"])
	}
	if out["Authorization"] != redactedPlaceholder {
		t.Errorf("Authorization header leaked: %v", out["Authorization"])
	}
	if out["method"] != "GetInstance" || out["namespace"] != "root/cimv2" {
		t.Errorf("non-secret operation attributes were mangled: %v", out)
	}
}

func TestDigestChallengeFieldsAreRedacted(t *testing.T) {
	out := logAndParse(t,
		"nonce", "abc123",
		"cnonce", "deadbeef",
		"opaque", "o1",
	)
	for _, k := range []string{"nonce", "cnonce", "opaque"} {
		if out[k] != redactedPlaceholder {
			t.Errorf("digest field %s leaked: %v", k, out[k])
		}
	}
}

func TestRedactionDescendsIntoGroups(t *testing.T) {
	out := logAndParse(t, slog.Group("creds",
		slog.String("username", "fritz"),
		slog.String("password", "town"),
	))
	group, ok := out["creds"].(map[string]any)
	if !ok {
		t.Fatalf("expected creds group, got %v", out)
	}
	if group["password"] != redactedPlaceholder {
		t.Errorf("grouped password leaked: %v", group["password"])
	}
	if group["username"] != "fritz" {
		t.Errorf("grouped username mangled: %v", group["username"])
	}
}

func TestWithAttrsScrubsPreboundSecrets(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(NewRedactingHandler(slog.NewJSONHandler(&buf, nil)))
	logger := base.With("session_token", "s3cr3t")
	logger.Info("pull batch", "count", 10)

	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out["session_token"] != redactedPlaceholder {
		t.Errorf("prebound secret leaked: %v", out["session_token"])
	}
}
