package integration

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
)

// uiURL builds a URL for the web UI.
func uiURL(path string) string {
	return strings.TrimRight(testServer, "/") + "/ui" + path
}

func TestWebUI_DashboardLoads(t *testing.T) {
	resp, err := http.Get(uiURL(""))
	if err != nil {
		t.Fatalf("HTTP error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("expected text/html content type, got %s", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "<html") {
		t.Error("response does not contain <html tag")
	}
}

func TestWebUI_SubmitShowsEvaluation(t *testing.T) {
	// The client follows the 303 to the detail page.
	resp, err := http.PostForm(uiURL("/evaluate"), url.Values{"expression": {"9 - 3 * 2"}})
	if err != nil {
		t.Fatalf("HTTP error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Request.URL.Path, "/ui/evaluations/") {
		t.Errorf("expected redirect to detail page, ended at %s", resp.Request.URL.Path)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "9 3 2 * -") {
		t.Error("expected postfix on detail page")
	}
}

func TestWebUI_NotFound(t *testing.T) {
	resp, err := http.Get(uiURL("/evaluations/nope"))
	if err != nil {
		t.Fatalf("HTTP error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}
