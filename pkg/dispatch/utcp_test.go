package dispatch

import (
	"context"
	"errors"
	"testing"

	utcptools "github.com/universal-tool-calling-protocol/go-utcp/src/tools"
)

type fakeUTCPClient struct {
	tools     []utcptools.Tool
	results   map[string]any
	searchErr error
	lastArgs  map[string]any
}

func (f *fakeUTCPClient) SearchTools(string, int) ([]utcptools.Tool, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.tools, nil
}

func (f *fakeUTCPClient) CallTool(_ context.Context, toolName string, args map[string]any) (any, error) {
	f.lastArgs = args
	res, ok := f.results[toolName]
	if !ok {
		return nil, errors.New("tool not found: " + toolName)
	}
	return res, nil
}

func TestUTCPCatalog(t *testing.T) {
	client := &fakeUTCPClient{
		tools: []utcptools.Tool{
			{
				Name:        "get_weather",
				Description: "Current weather",
				Inputs: utcptools.ToolInputOutputSchema{
					Type: "object",
					Properties: map[string]any{
						"city": map[string]any{"type": "string", "description": "City name"},
					},
					Required: []string{"city"},
				},
			},
		},
	}
	d := &UTCPDispatcher{Client: client}

	catalog, err := d.Catalog(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(catalog) != 1 || catalog[0].Name != "get_weather" {
		t.Fatalf("catalog = %+v", catalog)
	}
	city, ok := catalog[0].Parameters["city"]
	if !ok {
		t.Fatal("city parameter missing")
	}
	if city.Type != "string" || !city.Required || city.Description != "City name" {
		t.Errorf("city = %+v", city)
	}
}

func TestUTCPCatalogError(t *testing.T) {
	d := &UTCPDispatcher{Client: &fakeUTCPClient{searchErr: errors.New("offline")}}
	if _, err := d.Catalog(context.Background()); err == nil {
		t.Error("search failure should surface as an error")
	}
}

func TestUTCPExecuteString(t *testing.T) {
	client := &fakeUTCPClient{results: map[string]any{"get_weather": "sunny"}}
	d := &UTCPDispatcher{Client: client}

	ok, res := d.Execute(context.Background(), "get_weather", map[string]any{"city": "Oslo"})
	if !ok || res != "sunny" {
		t.Errorf("Execute = %v, %q", ok, res)
	}
	if client.lastArgs["city"] != "Oslo" {
		t.Errorf("arguments not forwarded: %v", client.lastArgs)
	}
}

func TestUTCPExecuteStructuredResult(t *testing.T) {
	client := &fakeUTCPClient{results: map[string]any{"get_weather": map[string]any{"temp": 12.0}}}
	d := &UTCPDispatcher{Client: client}

	ok, res := d.Execute(context.Background(), "get_weather", nil)
	if !ok || res != `{"temp":12}` {
		t.Errorf("Execute = %v, %q", ok, res)
	}
}

func TestUTCPExecuteNotFound(t *testing.T) {
	d := &UTCPDispatcher{Client: &fakeUTCPClient{}}
	ok, res := d.Execute(context.Background(), "missing", nil)
	if ok {
		t.Error("missing tool must fail")
	}
	if res != "Tool not found: missing" {
		t.Errorf("res = %q", res)
	}
}

func TestUTCPExecuteNilClient(t *testing.T) {
	d := &UTCPDispatcher{}
	if ok, _ := d.Execute(context.Background(), "x", nil); ok {
		t.Error("nil client must fail")
	}
}
