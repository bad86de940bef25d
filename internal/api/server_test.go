package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/qconv/internal/golden"
	"github.com/samcharles93/qconv/internal/testvec"
	"github.com/samcharles93/qconv/pkg/mli"
)

func newTestEcho(t *testing.T, withGolden bool) *echo.Echo {
	t.Helper()
	lib, err := mli.New(mli.Options{Backend: "ref"})
	if err != nil {
		t.Fatalf("new library: %v", err)
	}
	cfg := Config{Library: lib}
	if withGolden {
		store, err := golden.OpenInMemory()
		if err != nil {
			t.Fatalf("open golden: %v", err)
		}
		t.Cleanup(func() { _ = store.Close() })
		cfg.Golden = store
	}
	e := echo.New()
	NewServer(cfg).Register(e)
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %s: %v", rec.Body.String(), err)
	}
	return out
}

func caseBody(t *testing.T, op string) string {
	t.Helper()
	c, err := testvec.Synthesize(testvec.Synth{Op: op, Height: 6, Width: 6, Channels: 2, OutChannels: 3, Kernel: 3, Pad: 1, Seed: 5})
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	b, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal case: %v", err)
	}
	return string(b)
}

func TestBackends(t *testing.T) {
	t.Parallel()
	e := newTestEcho(t, false)
	rec := doJSON(t, e, http.MethodGet, "/v1/backends", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[BackendsResponse](t, rec)
	if resp.Active != "ref" {
		t.Fatalf("active backend: got %q", resp.Active)
	}
	if strings.Join(resp.Available, ",") != "ref,dsp,vdsp" {
		t.Fatalf("available: got %v", resp.Available)
	}
	if resp.Rounding != "up" {
		t.Fatalf("rounding: got %q", resp.Rounding)
	}
}

func TestDispatch(t *testing.T) {
	t.Parallel()
	e := newTestEcho(t, false)
	tests := []struct {
		query   string
		variant string
		loop    string
		generic bool
	}{
		{"op=conv2d&kw=3&kh=3&pad_left=1&pad_right=1&pad_top=1&pad_bottom=1", "conv2d_k3x3_krnpad", "split", false},
		{"kw=10&kh=10&pad_top=4&pad_bottom=5", "conv2d_k10x10_krnpad", "split", false},
		{"kw=10&kh=10&pad_top=5", "conv2d_generic", "krnpad", true},
		{"op=conv2d&kw=1&kh=1", "conv2d_k1x1_nopad", "nopad", false},
		{"op=depthwise_conv2d&kw=5&kh=5", "depthwise_conv2d_k5x5_nopad", "nopad", false},
		{"op=maxpool&kw=3&kh=3&pad_left=1", "maxpool_k3x3_krnpad", "split", false},
		{"op=avepool&kw=4&kh=4", "avepool_generic", "krnpad", true},
	}
	for _, tt := range tests {
		rec := doJSON(t, e, http.MethodGet, "/v1/dispatch?"+tt.query, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d body=%s", tt.query, rec.Code, rec.Body.String())
		}
		resp := decodeBody[DispatchResponse](t, rec)
		if resp.Variant != tt.variant || resp.Generic != tt.generic {
			t.Fatalf("%s: got %s generic=%v, want %s generic=%v", tt.query, resp.Variant, resp.Generic, tt.variant, tt.generic)
		}
		if resp.Loop != tt.loop {
			t.Fatalf("%s: loop %q, want %q", tt.query, resp.Loop, tt.loop)
		}
	}
}

func TestDispatchBadRequest(t *testing.T) {
	t.Parallel()
	e := newTestEcho(t, false)
	for _, q := range []string{"kw=3", "kw=3&kh=x", "op=softmax&kw=1&kh=1", "kw=3&kh=3&pad_top=-1"} {
		rec := doJSON(t, e, http.MethodGet, "/v1/dispatch?"+q, "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status %d, want 400", q, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "invalid_request_error") {
			t.Fatalf("%s: missing error envelope: %s", q, rec.Body.String())
		}
	}
}

func TestRunKernelAndFetch(t *testing.T) {
	t.Parallel()
	e := newTestEcho(t, false)
	rec := doJSON(t, e, http.MethodPost, "/v1/kernels/conv2d_sa8_sa8_sa32", caseBody(t, "conv2d_sa8_sa8_sa32"))
	if rec.Code != http.StatusOK {
		t.Fatalf("run status: got %d body=%s", rec.Code, rec.Body.String())
	}
	run := decodeBody[RunResponse](t, rec)
	if !strings.HasPrefix(run.ID, "run_") {
		t.Fatalf("run id: %q", run.ID)
	}
	if run.Variant != "conv2d_k3x3_krnpad" {
		t.Fatalf("variant: %q", run.Variant)
	}
	if run.Output == nil || len(run.Output.Data) != 6*6*3 {
		t.Fatalf("output: %+v", run.Output)
	}
	if len(run.CRC) != 8 {
		t.Fatalf("crc: %q", run.CRC)
	}

	get := doJSON(t, e, http.MethodGet, "/v1/runs/"+run.ID, "")
	if get.Code != http.StatusOK {
		t.Fatalf("get status: %d", get.Code)
	}
	if got := decodeBody[RunResponse](t, get); got.CRC != run.CRC {
		t.Fatalf("stored crc %s, want %s", got.CRC, run.CRC)
	}

	del := doJSON(t, e, http.MethodDelete, "/v1/runs/"+run.ID, "")
	if del.Code != http.StatusOK {
		t.Fatalf("delete status: %d", del.Code)
	}
	if again := doJSON(t, e, http.MethodGet, "/v1/runs/"+run.ID, ""); again.Code != http.StatusNotFound {
		t.Fatalf("get after delete: %d", again.Code)
	}
}

func TestRunKernelErrors(t *testing.T) {
	t.Parallel()
	e := newTestEcho(t, false)

	rec := doJSON(t, e, http.MethodPost, "/v1/kernels/conv2d_fx16", caseBody(t, "conv2d_sa8_sa8_sa32"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("op mismatch: status %d", rec.Code)
	}

	rec = doJSON(t, e, http.MethodPost, "/v1/kernels/conv2d_fx16", "{")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad json: status %d", rec.Code)
	}

	body := strings.Replace(caseBody(t, "conv2d_fx16"), `"padding_top":1`, `"padding_top":3`, 1)
	rec = doJSON(t, e, http.MethodPost, "/v1/kernels/conv2d_fx16", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad config: status %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), mli.StatusBadFuncCfg.String()) {
		t.Fatalf("missing status code: %s", rec.Body.String())
	}

	body = strings.Replace(caseBody(t, "maxpool_fx16"), `"padding_top":1`, `"padding_top":33554432`, 1)
	body = strings.Replace(body, `"padding_bottom":1`, `"padding_bottom":33554432`, 1)
	body = strings.Replace(body, `"kernel_height":3`, `"kernel_height":33554433`, 1)
	rec = doJSON(t, e, http.MethodPost, "/v1/kernels/maxpool_fx16", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("huge output: status %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), mli.StatusNotEnoughMem.String()) {
		t.Fatalf("missing status code: %s", rec.Body.String())
	}

	rec = doJSON(t, e, http.MethodPost, "/v1/kernels/conv2d_fx16?record=true", caseBody(t, "conv2d_fx16"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("record without store: status %d", rec.Code)
	}
}

func TestGoldenRecordVerify(t *testing.T) {
	t.Parallel()
	e := newTestEcho(t, true)
	body := caseBody(t, "maxpool_sa8")

	rec := doJSON(t, e, http.MethodPost, "/v1/kernels/maxpool_sa8?verify=true", body)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("verify before record: status %d", rec.Code)
	}

	rec = doJSON(t, e, http.MethodPost, "/v1/kernels/maxpool_sa8?record=true&omit_output=true", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("record: status %d body=%s", rec.Code, rec.Body.String())
	}
	run := decodeBody[RunResponse](t, rec)
	if run.Golden != "recorded" || run.Output != nil {
		t.Fatalf("record response: %+v", run)
	}

	rec = doJSON(t, e, http.MethodPost, "/v1/kernels/maxpool_sa8?verify=true", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("verify: status %d", rec.Code)
	}
	if got := decodeBody[RunResponse](t, rec); got.Golden != "match" {
		t.Fatalf("verify: golden %q", got.Golden)
	}
}

func TestRunStoreEvictsOldest(t *testing.T) {
	t.Parallel()
	s := NewRunStore(2)
	for _, id := range []string{"a", "b", "c"} {
		s.Put(&RunResponse{ID: id})
	}
	if _, ok := s.Get("a"); ok {
		t.Fatal("oldest run not evicted")
	}
	if s.Len() != 2 {
		t.Fatalf("len: %d", s.Len())
	}
	if !s.Delete("b") || s.Delete("b") {
		t.Fatal("delete")
	}
}

func TestBadRequestNamesParam(t *testing.T) {
	t.Parallel()
	e := newTestEcho(t, false)
	rec := doJSON(t, e, http.MethodGet, "/v1/dispatch?op=conv2d&kw=3&kh=x", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
	body := decodeBody[map[string]ResponseError](t, rec)
	if got := body["error"].Param; got != "kh" {
		t.Fatalf("param: got %q, want kh", got)
	}
	if !errors.Is(badParam("kw", "bad"), ErrInvalidRequest) {
		t.Fatal("badParam does not match ErrInvalidRequest")
	}
}
