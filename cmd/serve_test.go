//go:build !integration

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flockmap/flock-cli/internal/config"
	"github.com/flockmap/flock-cli/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg = &config.Config{
		Region: config.RegionConfig{BatchConcurrency: 2},
		Server: config.ServerConfig{RatePerSecond: 1000, RateBurst: 1000, CORSOrigins: []string{"*"}},
	}

	st, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.Migrate(t.Context()))
	t.Cleanup(func() { st.Close() })

	d, renderer := newDispatcher(st)
	ts := httptest.NewServer(newMapServer(st, d, renderer).routes(cfg.Server))
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body string) map[string]any {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Less(t, resp.StatusCode, 300, "POST %s", url)

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func putJSON(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func getJSON(t *testing.T, url string, out any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestServe_Health(t *testing.T) {
	ts := newTestServer(t)

	var out map[string]string
	getJSON(t, ts.URL+"/health", &out)
	assert.Equal(t, "ok", out["status"])
}

func TestServe_GroupLifecycleDrivesRegions(t *testing.T) {
	ts := newTestServer(t)

	g := postJSON(t, ts.URL+"/groups", `{"name":"North","color":"#ff0000"}`)
	groupID := g["id"].(string)
	require.NotEmpty(t, groupID)

	// No located members yet, so no region.
	var regions []map[string]any
	getJSON(t, ts.URL+"/regions", &regions)
	assert.Empty(t, regions)

	// One member produces a fallback circle.
	postJSON(t, ts.URL+"/persons", fmt.Sprintf(`{"name":"Ada","lat":30.25,"lng":-97.75,"group_id":%q}`, groupID))
	getJSON(t, ts.URL+"/regions", &regions)
	require.Len(t, regions, 1)
	assert.Equal(t, "circle", regions[0]["kind"])
	assert.Equal(t, "#ff0000", regions[0]["color"])

	// Four spread members produce a polygon.
	for i, loc := range [][2]float64{{30.0, -98.0}, {30.0, -97.0}, {31.0, -97.0}, {31.0, -98.0}} {
		postJSON(t, ts.URL+"/persons",
			fmt.Sprintf(`{"name":"p%d","lat":%f,"lng":%f,"group_id":%q}`, i, loc[0], loc[1], groupID))
	}
	getJSON(t, ts.URL+"/regions", &regions)
	require.Len(t, regions, 1)
	assert.Equal(t, "polygon", regions[0]["kind"])

	// Deleting the group drops its region.
	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/groups/"+groupID, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	getJSON(t, ts.URL+"/regions", &regions)
	assert.Empty(t, regions)
}

func TestServe_VisibilityToggle(t *testing.T) {
	ts := newTestServer(t)

	g := postJSON(t, ts.URL+"/groups", `{"name":"North"}`)
	groupID := g["id"].(string)
	postJSON(t, ts.URL+"/persons", fmt.Sprintf(`{"name":"Ada","lat":30.25,"lng":-97.75,"group_id":%q}`, groupID))

	resp := putJSON(t, ts.URL+"/regions/visibility", `{"visible":false}`)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var regions []map[string]any
	getJSON(t, ts.URL+"/regions", &regions)
	require.Len(t, regions, 1)
	assert.Equal(t, false, regions[0]["visible"])

	// Hidden regions are excluded from the map overlay.
	var fc struct {
		Features []map[string]any `json:"features"`
	}
	getJSON(t, ts.URL+"/map/features", &fc)
	for _, f := range fc.Features {
		props := f["properties"].(map[string]any)
		assert.NotEqual(t, "region", props["kind"])
	}
}

func TestServe_MapFeaturesIncludesMarkers(t *testing.T) {
	ts := newTestServer(t)

	g := postJSON(t, ts.URL+"/groups", `{"name":"North"}`)
	groupID := g["id"].(string)
	postJSON(t, ts.URL+"/persons", fmt.Sprintf(`{"name":"Ada","lat":30.25,"lng":-97.75,"group_id":%q}`, groupID))
	postJSON(t, ts.URL+"/meetings", fmt.Sprintf(`{"name":"Hall","lat":30.3,"lng":-97.8,"group_id":%q}`, groupID))
	postJSON(t, ts.URL+"/families", `{"name":"Garcia","lat":30.1,"lng":-97.6}`)

	var fc struct {
		Type     string           `json:"type"`
		Features []map[string]any `json:"features"`
	}
	getJSON(t, ts.URL+"/map/features", &fc)
	assert.Equal(t, "FeatureCollection", fc.Type)

	kinds := map[string]int{}
	for _, f := range fc.Features {
		props := f["properties"].(map[string]any)
		kinds[props["kind"].(string)]++
	}
	assert.Equal(t, 1, kinds["person"])
	assert.Equal(t, 1, kinds["meeting"])
	assert.Equal(t, 1, kinds["family"])
	assert.Equal(t, 1, kinds["region"])
}

func TestServe_MovePersonRecomputes(t *testing.T) {
	ts := newTestServer(t)

	g := postJSON(t, ts.URL+"/groups", `{"name":"North"}`)
	groupID := g["id"].(string)
	p := postJSON(t, ts.URL+"/persons", fmt.Sprintf(`{"name":"Ada","lat":30.25,"lng":-97.75,"group_id":%q}`, groupID))
	personID := p["id"].(string)

	resp := putJSON(t, ts.URL+"/persons/"+personID+"/location", `{"lat":31.0,"lng":-96.0}`)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var regions []map[string]any
	getJSON(t, ts.URL+"/regions", &regions)
	require.Len(t, regions, 1)
	center := regions[0]["center"].(map[string]any)
	assert.InDelta(t, 31.0, center["lat"].(float64), 1e-9)
}

func TestServe_InvalidBodyRejected(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/groups", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	// Tiny bucket so the limit actually trips.
	handler := rateLimit(1, 2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	limited := httptest.NewServer(handler)
	defer limited.Close()

	var tooMany bool
	for i := 0; i < 5; i++ {
		resp, err := http.Get(limited.URL)
		require.NoError(t, err)
		resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			tooMany = true
		}
	}
	assert.True(t, tooMany)
}
