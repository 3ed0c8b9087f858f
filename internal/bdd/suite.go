// Package bdd drives feature files against an http.Handler with godog.
package bdd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/cucumber/godog"
	"github.com/cucumber/godog/colors"
	"github.com/stretchr/testify/assert"
)

// Seeder loads the rows of a table into the named collection.
type Seeder interface {
	Seed(collection string, data *godog.Table) error
}

type TestSuite struct {
	T        *testing.T
	Handler  http.Handler
	BaseURL  string
	Resp     *http.Response
	RespBody []byte
	Storage  map[string]string
	Seeders  map[string]Seeder

	// Reset runs before every scenario, typically to rebuild Handler on a fresh store.
	Reset func() error
}

func NewTestSuite(handler http.Handler) *TestSuite {
	return &TestSuite{
		Handler: handler,
		Storage: make(map[string]string),
		Seeders: make(map[string]Seeder),
	}
}

type testLogger struct {
	t *testing.T
}

func (tl *testLogger) Write(p []byte) (int, error) {
	if tl.t != nil {
		tl.t.Logf("%s", p)
	}
	return len(p), nil
}

func (ts *TestSuite) RegisterSeeder(collection string, seeder Seeder) {
	ts.Seeders[collection] = seeder
}

func (ts *TestSuite) InitializeScenario(ctx *godog.ScenarioContext) {
	ctx.BeforeScenario(func(*godog.Scenario) {
		ts.Resp = nil
		ts.RespBody = nil
		ts.Storage = make(map[string]string)
		if ts.Reset != nil {
			if err := ts.Reset(); err != nil {
				ts.T.Errorf("reset scenario: %v", err)
			}
		}
	})

	ctx.Step(`^collection "([^"]*)" has the following items$`, ts.collectionHasTheFollowingItems)
	ctx.Step(`^I send a POST request to "([^"]*)" with body$`, ts.iSendAPOSTRequestToWithBody)
	ctx.Step(`^I send a POST request to "([^"]*)" with raw body "([^"]*)"$`, ts.iSendAPOSTRequestToWithRawBody)
	ctx.Step(`^I send a GET request to "([^"]*)"$`, ts.iSendAGETRequestTo)
	ctx.Step(`^the response status should be (\d+)$`, ts.theResponseStatusShouldBe)
	ctx.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, ts.theResponseHeaderShouldBe)
	ctx.Step(`^the response "([^"]*)" field is stored as "([^"]*)"$`, ts.theResponseFieldIsStoredAs)
	ctx.Step(`^the response should contain an item with$`, ts.theResponseShouldContainAnItemWith)
	ctx.Step(`^the response should be a list of (\d+) items$`, ts.theResponseShouldBeAListOfItems)
	ctx.Step(`^item (\d+) of the response should have$`, ts.itemOfTheResponseShouldHave)
}

func (ts *TestSuite) collectionHasTheFollowingItems(collection string, data *godog.Table) error {
	seeder, ok := ts.Seeders[collection]
	if !ok {
		return fmt.Errorf("no seeder registered for collection %s", collection)
	}
	return seeder.Seed(collection, data)
}

func (ts *TestSuite) iSendAPOSTRequestToWithBody(path string, body *godog.Table) error {
	rows, err := TableRows(body)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(rows[0])
	if err != nil {
		return err
	}
	return ts.send(http.MethodPost, path, payload)
}

func (ts *TestSuite) iSendAPOSTRequestToWithRawBody(path, body string) error {
	return ts.send(http.MethodPost, path, []byte(body))
}

func (ts *TestSuite) iSendAGETRequestTo(path string) error {
	return ts.send(http.MethodGet, path, nil)
}

// send goes over the network when BaseURL is set and through Handler otherwise.
func (ts *TestSuite) send(method, path string, body []byte) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if ts.BaseURL != "" {
		ts.Resp, err = http.DefaultClient.Do(req)
		if err != nil {
			return err
		}
	} else {
		w := httptest.NewRecorder()
		ts.Handler.ServeHTTP(w, req)
		ts.Resp = w.Result()
	}
	defer ts.Resp.Body.Close()

	ts.RespBody, err = io.ReadAll(ts.Resp.Body)
	return err
}

func (ts *TestSuite) theResponseStatusShouldBe(status int) error {
	if ts.Resp.StatusCode != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, ts.Resp.StatusCode, ts.RespBody)
	}
	return nil
}

func (ts *TestSuite) theResponseHeaderShouldBe(header, value string) error {
	if got := ts.Resp.Header.Get(header); got != value {
		return fmt.Errorf("expected header %s to be %q, got %q", header, value, got)
	}
	return nil
}

func (ts *TestSuite) theResponseFieldIsStoredAs(field, key string) error {
	var data map[string]interface{}
	if err := json.Unmarshal(ts.RespBody, &data); err != nil {
		return err
	}
	if val, ok := data[field]; ok {
		ts.Storage[key] = fmt.Sprintf("%v", val)
		return nil
	}
	return fmt.Errorf("field %s not found in response", field)
}

func (ts *TestSuite) theResponseShouldContainAnItemWith(body *godog.Table) error {
	var actual map[string]interface{}
	if err := json.Unmarshal(ts.RespBody, &actual); err != nil {
		return err
	}
	return ts.matchRow(actual, body)
}

func (ts *TestSuite) theResponseShouldBeAListOfItems(n int) error {
	var items []map[string]interface{}
	if err := json.Unmarshal(ts.RespBody, &items); err != nil {
		return err
	}
	if len(items) != n {
		return fmt.Errorf("expected %d items, got %d", n, len(items))
	}
	return nil
}

// itemOfTheResponseShouldHave is 1-based.
func (ts *TestSuite) itemOfTheResponseShouldHave(index int, body *godog.Table) error {
	var items []map[string]interface{}
	if err := json.Unmarshal(ts.RespBody, &items); err != nil {
		return err
	}
	if index < 1 || index > len(items) {
		return fmt.Errorf("item %d out of range, response has %d items", index, len(items))
	}
	return ts.matchRow(items[index-1], body)
}

// matchRow compares fields as text, so numbers in the table match JSON numbers.
func (ts *TestSuite) matchRow(actual map[string]interface{}, body *godog.Table) error {
	rows, err := TableRows(body)
	if err != nil {
		return err
	}
	for key, want := range rows[0] {
		got, ok := actual[key]
		if !ok {
			return fmt.Errorf("field %s not found in response", key)
		}
		if !assert.Equal(ts.T, want, formatValue(got), "field %s", key) {
			return fmt.Errorf("field %s: expected %q, got %v", key, want, got)
		}
	}
	return nil
}

func formatValue(v interface{}) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprintf("%v", v)
}

// TableRows turns a table with a header row into one map per data row.
func TableRows(table *godog.Table) ([]map[string]string, error) {
	if len(table.Rows) < 2 {
		return nil, fmt.Errorf("table must have at least two rows")
	}
	headers := table.Rows[0].Cells
	out := make([]map[string]string, 0, len(table.Rows)-1)
	for _, row := range table.Rows[1:] {
		item := make(map[string]string, len(row.Cells))
		for j, cell := range row.Cells {
			item[headers[j].Value] = cell.Value
		}
		out = append(out, item)
	}
	return out, nil
}

// Run executes the feature files under paths and fails t if any scenario fails.
func Run(t *testing.T, suite *TestSuite, paths ...string) {
	suite.T = t
	if len(paths) == 0 {
		paths = []string{"features"}
	}
	opts := godog.Options{
		Format:    "pretty",
		Output:    colors.Colored(&testLogger{t: t}),
		Paths:     paths,
		Strict:    true,
		Randomize: 0,
	}

	status := godog.TestSuite{
		Name:                "postboard",
		ScenarioInitializer: suite.InitializeScenario,
		Options:             &opts,
	}.Run()
	if status != 0 {
		t.Fatalf("feature run failed with status %d", status)
	}
}
