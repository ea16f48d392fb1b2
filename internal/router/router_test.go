package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"metrology-records/internal/adapters/blob"
	"metrology-records/internal/router"
)

const (
	metrologista = "metrologista"
	quimico      = "quimico"
	admin        = "admin"
)

func newTestServer(t *testing.T, opts router.Options) (*httptest.Server, *blob.MemoryStore) {
	t.Helper()

	blobs := blob.NewMemoryStore("http://files.local")
	opts.BlobStore = blobs
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) }
	}
	ts := httptest.NewServer(router.NewRouter(opts))
	t.Cleanup(ts.Close)
	return ts, blobs
}

func TestHTTP_EndToEnd_CertificateEmission(t *testing.T) {
	ts, _ := newTestServer(t, router.Options{})

	uid := "metro-1"

	// 1) Sin usuario => 401; rol sin el módulo => 403
	if st, _ := doReq(t, ts.URL, "GET", "/equipment", "", "", nil); st != http.StatusUnauthorized {
		t.Fatalf("expected 401 without user, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "GET", "/equipment", "chem-1", quimico, nil); st != http.StatusForbidden {
		t.Fatalf("expected 403 for quimico on equipment, got %d", st)
	}

	// 2) Alta de equipo
	{
		st, body := doReq(t, ts.URL, "POST", "/equipment", uid, metrologista, map[string]any{
			"id":     "paq-001",
			"type":   "Paquímetro",
			"sector": "Ferramentaria",
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 create equipment, got %d body=%s", st, string(body))
		}
	}

	// 3) El candidato no avanza al consultarlo
	if got := nextNumber(t, ts.URL, uid); got != "0100125" {
		t.Fatalf("expected first candidate 0100125, got %s", got)
	}
	if got := nextNumber(t, ts.URL, uid); got != "0100125" {
		t.Fatalf("expected candidate to stay 0100125, got %s", got)
	}

	// 4) Emisión automática
	first := emitCertificate(t, ts.URL, uid, map[string]any{
		"equipment_id":     "PAQ-001",
		"calibration_date": "2025-03-01",
		"expiration_date":  "2026-03-01",
	})
	if first != "0100125" {
		t.Fatalf("expected emitted number 0100125, got %s", first)
	}
	if got := nextNumber(t, ts.URL, uid); got != "0100225" {
		t.Fatalf("expected candidate 0100225 after emission, got %s", got)
	}

	// 5) Número manual: la secuencia continúa desde él
	manual := emitCertificate(t, ts.URL, uid, map[string]any{
		"equipment_id":       "PAQ-001",
		"certificate_number": "0105025",
		"calibration_date":   "2025-03-05",
		"expiration_date":    "2026-03-05",
	})
	if manual != "0105025" {
		t.Fatalf("expected manual number kept, got %s", manual)
	}
	if got := nextNumber(t, ts.URL, uid); got != "0105125" {
		t.Fatalf("expected candidate 0105125 after manual, got %s", got)
	}

	// 6) Número repetido => 409
	{
		st, body := doReq(t, ts.URL, "POST", "/certificates", uid, metrologista, map[string]any{
			"equipment_id":       "PAQ-001",
			"certificate_number": "0100125",
			"calibration_date":   "2025-03-06",
			"expiration_date":    "2026-03-06",
		})
		if st != http.StatusConflict {
			t.Fatalf("expected 409 duplicate number, got %d body=%s", st, string(body))
		}
	}

	// 7) Equipo inexistente => 404
	{
		st, _ := doReq(t, ts.URL, "POST", "/certificates", uid, metrologista, map[string]any{
			"equipment_id":     "PAQ-999",
			"calibration_date": "2025-03-01",
			"expiration_date":  "2026-03-01",
		})
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 unknown equipment, got %d", st)
		}
	}

	// 8) Historial del equipo
	{
		st, body := doReq(t, ts.URL, "GET", "/equipment/PAQ-001/certificates", uid, metrologista, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 history, got %d body=%s", st, string(body))
		}
		var items []struct {
			CertificateNumber string `json:"certificate_number"`
		}
		_ = json.Unmarshal(body, &items)
		if len(items) != 2 || items[0].CertificateNumber != "0105025" {
			t.Fatalf("expected 2 certificates newest first, got %s", string(body))
		}
	}

	// 9) La consulta pública ve el equipo sin login
	{
		st, body := doReq(t, ts.URL, "GET", "/public/equipment", "", "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 public equipment, got %d", st)
		}
		var items []struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(body, &items)
		if len(items) != 1 || items[0].ID != "PAQ-001" {
			t.Fatalf("unexpected public equipment: %s", string(body))
		}
	}
}

func TestHTTP_SafetySheets_UploadAndPublicQuery(t *testing.T) {
	ts, blobs := newTestServer(t, router.Options{})

	uid := "chem-1"

	st, body := doMultipart(t, ts.URL, "/fdus", uid, quimico, map[string]string{
		"produto":    "Acetona",
		"fabricante": "Química Sul",
		"setor":      "Laboratório",
		"validade":   "2025-03-20",
	}, "acetona fdu.pdf", []byte("%PDF-1.4"))
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create fdu, got %d body=%s", st, string(body))
	}
	var created struct {
		ID         string `json:"id"`
		Status     string `json:"status"`
		ArquivoURL string `json:"arquivo_url"`
	}
	_ = json.Unmarshal(body, &created)
	if created.Status != "expiring" {
		t.Fatalf("expected expiring status, got %q", created.Status)
	}
	if blobs.Count("fdus") != 1 {
		t.Fatalf("expected file stored in fdus bucket")
	}

	// Sin archivo => 400
	if st, _ := doReq(t, ts.URL, "POST", "/fdus", uid, quimico, map[string]string{
		"produto":    "Etanol",
		"fabricante": "Química Sul",
		"setor":      "Laboratório",
		"validade":   "2026-01-01",
	}); st != http.StatusBadRequest {
		t.Fatalf("expected 400 without file, got %d", st)
	}

	// FISPQ no ve registros de FDU
	{
		st, body := doReq(t, ts.URL, "GET", "/public/fispqs", "", "", nil)
		if st != http.StatusOK || string(bytes.TrimSpace(body)) != "[]" {
			t.Fatalf("expected empty public fispqs, got %d body=%s", st, string(body))
		}
	}
	{
		st, body := doReq(t, ts.URL, "GET", "/public/fdus/statistics", "", "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 public statistics, got %d", st)
		}
		var stats map[string]int
		_ = json.Unmarshal(body, &stats)
		if stats["total"] != 1 {
			t.Fatalf("unexpected public statistics: %s", string(body))
		}
	}

	// Borrado elimina registro y archivo
	if st, _ := doReq(t, ts.URL, "DELETE", "/fdus/"+created.ID, uid, quimico, nil); st != http.StatusNoContent {
		t.Fatalf("expected 204 delete fdu, got %d", st)
	}
	if blobs.Count("fdus") != 0 {
		t.Fatalf("expected file removed from fdus bucket")
	}
}

func TestHTTP_RoleFromProfile_InvalidatedOnChange(t *testing.T) {
	ts, _ := newTestServer(t, router.Options{})

	uid := "user-7"

	// Sin rol en headers ni perfil => 403 (y queda cacheado)
	if st, _ := doReq(t, ts.URL, "GET", "/emergency-sheets", uid, "", nil); st != http.StatusForbidden {
		t.Fatalf("expected 403 without profile, got %d", st)
	}

	// Solo admin gestiona usuarios
	if st, _ := doReq(t, ts.URL, "PUT", "/admin/users/"+uid, "metro-1", metrologista, map[string]any{
		"email": "x@example.com", "nome": "X", "tipo_usuario": "quimico",
	}); st != http.StatusForbidden {
		t.Fatalf("expected 403 admin route for metrologista, got %d", st)
	}

	{
		st, body := doReq(t, ts.URL, "PUT", "/admin/users/"+uid, "admin-1", admin, map[string]any{
			"email":        "Ana@Example.com",
			"nome":         "Ana",
			"tipo_usuario": "quimico",
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 upsert user, got %d body=%s", st, string(body))
		}
	}

	// El cambio de rol invalida la caché
	if st, body := doReq(t, ts.URL, "GET", "/emergency-sheets", uid, "", nil); st != http.StatusOK {
		t.Fatalf("expected 200 after role assigned, got %d body=%s", st, string(body))
	}

	{
		st, body := doReq(t, ts.URL, "GET", "/me", uid, "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 me, got %d", st)
		}
		var me struct {
			Email   string   `json:"email"`
			Role    string   `json:"tipo_usuario"`
			Modules []string `json:"modules"`
		}
		_ = json.Unmarshal(body, &me)
		if me.Email != "ana@example.com" || me.Role != "quimico" || len(me.Modules) != 2 {
			t.Fatalf("unexpected profile: %s", string(body))
		}
	}
}

func TestHTTP_PublicRateLimit(t *testing.T) {
	ts, _ := newTestServer(t, router.Options{PublicRateLimitRPS: 0.001, PublicRateLimitBurst: 1})

	if st, _ := doReq(t, ts.URL, "GET", "/public/emergency-sheets", "", "", nil); st != http.StatusOK {
		t.Fatalf("expected first public request to pass, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "GET", "/public/emergency-sheets", "", "", nil); st != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on second public request, got %d", st)
	}

	// Las rutas autenticadas no tienen límite
	for i := 0; i < 3; i++ {
		if st, _ := doReq(t, ts.URL, "GET", "/emergency-sheets", "chem-1", quimico, nil); st != http.StatusOK {
			t.Fatalf("expected 200 authenticated list, got %d", st)
		}
	}
}

func TestHTTP_EmitAdvancesNextExactlyOnce(t *testing.T) {
	ts, _ := newTestServer(t, router.Options{})
	uid := "metro-1"

	if st, body := doReq(t, ts.URL, "POST", "/equipment", uid, metrologista, map[string]any{
		"id": "PAQ-002", "type": "Paquímetro", "sector": "Ferramentaria",
	}); st != http.StatusCreated {
		t.Fatalf("expected 201 create equipment, got %d body=%s", st, string(body))
	}

	if got := emitCertificate(t, ts.URL, uid, map[string]any{
		"equipment_id":     "PAQ-002",
		"calibration_date": "2025-03-01",
		"expiration_date":  "2026-03-01",
	}); got != "0100125" {
		t.Fatalf("expected 0100125, got %s", got)
	}
	if got := nextNumber(t, ts.URL, uid); got != "0100225" {
		t.Fatalf("expected a single advance to 0100225, got %s", got)
	}

	// el ajuste manual del contador no está abierto al rol de emisión
	if st, _ := doReq(t, ts.URL, "POST", "/certificate-numbers/increment", uid, metrologista, nil); st != http.StatusForbidden {
		t.Fatalf("expected 403 increment for metrologista, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "POST", "/certificate-numbers/override", uid, metrologista, map[string]any{"number": "0109025"}); st != http.StatusForbidden {
		t.Fatalf("expected 403 override for metrologista, got %d", st)
	}
	if got := nextNumber(t, ts.URL, uid); got != "0100225" {
		t.Fatalf("rejected corrections must not move the counter, got %s", got)
	}

	if st, body := doReq(t, ts.URL, "POST", "/certificate-numbers/increment", "admin-1", admin, nil); st != http.StatusNoContent {
		t.Fatalf("expected 204 increment for admin, got %d body=%s", st, string(body))
	}
	if got := nextNumber(t, ts.URL, uid); got != "0100325" {
		t.Fatalf("expected 0100325 after admin correction, got %s", got)
	}
}

func TestHTTP_Health(t *testing.T) {
	ts, _ := newTestServer(t, router.Options{})

	st, body := doReq(t, ts.URL, "GET", "/health", "", "", nil)
	if st != http.StatusOK || string(body) != "ok" {
		t.Fatalf("expected 200 ok, got %d body=%s", st, string(body))
	}
}

func nextNumber(t *testing.T, baseURL, userID string) string {
	t.Helper()

	st, body := doReq(t, baseURL, "GET", "/certificate-numbers/next", userID, metrologista, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 next number, got %d body=%s", st, string(body))
	}
	var resp struct {
		Number string `json:"number"`
	}
	_ = json.Unmarshal(body, &resp)
	return resp.Number
}

func emitCertificate(t *testing.T, baseURL, userID string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/certificates", userID, metrologista, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 emit certificate, got %d body=%s", st, string(body))
	}

	var resp struct {
		CertificateNumber string `json:"certificate_number"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.CertificateNumber == "" {
		t.Fatalf("emit certificate: missing number body=%s", string(body))
	}
	return resp.CertificateNumber
}

func doMultipart(t *testing.T, baseURL, path, userID, role string, fields map[string]string, fileName string, content []byte) (int, []byte) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	fw, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = fw.Write(content)
	_ = mw.Close()

	req, err := http.NewRequest("POST", baseURL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	setDebugUser(req, userID, role)

	return send(t, req)
}

func doReq(t *testing.T, baseURL, method, path, debugUserID, debugRole string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	setDebugUser(req, debugUserID, debugRole)

	return send(t, req)
}

func setDebugUser(req *http.Request, userID, role string) {
	if userID != "" {
		req.Header.Set("X-Debug-User-ID", userID)
	}
	if role != "" {
		req.Header.Set("X-Debug-User-Role", role)
	}
}

func send(t *testing.T, req *http.Request) (int, []byte) {
	t.Helper()

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	b, _ := io.ReadAll(res.Body)
	return res.StatusCode, b
}
