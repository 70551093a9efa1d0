// Command check_openapi verifies that api/openapi.yaml stays in sync with
// the routes the server actually registers and that the shared error schema
// keeps its contract. Run it in CI after editing either side.
package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type openAPIDoc struct {
	Paths      map[string]map[string]any `yaml:"paths"`
	Components struct {
		Schemas map[string]schema `yaml:"schemas"`
	} `yaml:"components"`
}

type schema struct {
	Type       string            `yaml:"type"`
	Properties map[string]schema `yaml:"properties"`
	Required   []string          `yaml:"required"`
}

// servedRoutes mirrors Server.routes. Keep the two lists in lockstep.
var servedRoutes = map[string][]string{
	"/healthz":                     {"get"},
	"/api/dashboard/stats":         {"get"},
	"/api/tasks":                   {"get", "post"},
	"/api/tasks/{id}":              {"patch", "delete"},
	"/api/documents":               {"get", "post"},
	"/api/documents/{id}":          {"patch", "delete"},
	"/api/documents/{id}/download": {"get"},
	"/api/agents":                  {"get"},
	"/api/chat/messages":           {"get", "post"},
	"/api/profile":                 {"get", "patch"},
	"/api/activity":                {"get", "post"},
}

func main() {
	path := "api/openapi.yaml"
	if len(os.Args) == 2 {
		path = os.Args[1]
	} else if len(os.Args) > 2 {
		fmt.Fprintf(os.Stderr, "usage: %s [openapi.yaml]\n", os.Args[0])
		os.Exit(2)
	}

	doc, err := loadDoc(path)
	if err != nil {
		exitErr(err)
	}

	var problems []string
	problems = append(problems, checkRoutes(doc)...)
	problems = append(problems, checkErrorSchema(doc)...)

	if len(problems) > 0 {
		sort.Strings(problems)
		for _, p := range problems {
			fmt.Fprintln(os.Stderr, p)
		}
		os.Exit(1)
	}
	fmt.Printf("%s matches served routes\n", path)
}

func checkRoutes(doc openAPIDoc) []string {
	var problems []string
	for route, methods := range servedRoutes {
		item, ok := doc.Paths[route]
		if !ok {
			problems = append(problems, fmt.Sprintf("missing path %s", route))
			continue
		}
		for _, method := range methods {
			if _, ok := item[method]; !ok {
				problems = append(problems, fmt.Sprintf("missing operation %s %s", strings.ToUpper(method), route))
			}
		}
	}
	for route := range doc.Paths {
		if _, ok := servedRoutes[route]; !ok {
			problems = append(problems, fmt.Sprintf("documented path %s is not served", route))
		}
	}
	return problems
}

func checkErrorSchema(doc openAPIDoc) []string {
	errSchema, ok := doc.Components.Schemas["ErrorResponse"]
	if !ok {
		return []string{"missing schema ErrorResponse"}
	}
	var problems []string
	for _, field := range []string{"error", "code", "requestId"} {
		if _, ok := errSchema.Properties[field]; !ok {
			problems = append(problems, fmt.Sprintf("ErrorResponse missing property %s", field))
		}
	}
	required := map[string]bool{}
	for _, field := range errSchema.Required {
		required[field] = true
	}
	if !required["error"] || !required["code"] {
		problems = append(problems, "ErrorResponse must require error and code")
	}
	return problems
}

func loadDoc(path string) (openAPIDoc, error) {
	var doc openAPIDoc
	data, err := os.ReadFile(path)
	if err != nil {
		return doc, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

func exitErr(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
