// cmd/tools/registry-updater/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/xeipuuv/gojsonschema"

	aa "recruitment-portal/internal/workers/application/approve-application"
	ca "recruitment-portal/internal/workers/application/check-attachments"
	nsc "recruitment-portal/internal/workers/communication/notify-status-change"
	ia "recruitment-portal/internal/workers/data-access/index-application"
	gaf "recruitment-portal/internal/workers/documents/generate-application-form"
	gec "recruitment-portal/internal/workers/documents/generate-exam-card"
	"recruitment-portal/pkg/registry"
)

const defaultRegistryPath = "pkg/registry/activities.json"

// workerTaskTypes are the task types the worker manager registers.
var workerTaskTypes = []string{
	aa.TaskType,
	ca.TaskType,
	gaf.TaskType,
	gec.TaskType,
	nsc.TaskType,
	ia.TaskType,
}

func main() {
	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "list":
		err = runList(os.Args[2:])
	case "update":
		err = runUpdate(os.Args[2:])
	case "validate":
		err = runValidate(os.Args[2:])
	case "help":
		help()
	default:
		help()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	path := fs.String("path", defaultRegistryPath, "Path to registry file")
	fs.Parse(args)

	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	for _, a := range reg.Activities {
		fmt.Printf("%-28s %-40s %-12s %s\n", a.TaskType, a.ID, a.ImplementationStatus, a.Timeout)
	}
	return nil
}

func runUpdate(args []string) error {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	path := fs.String("path", defaultRegistryPath, "Path to registry file")
	taskType := fs.String("taskType", "", "Task type of the activity to update")
	field := fs.String("field", "", "Field to update (status, version, timeout, retries, description)")
	value := fs.String("value", "", "New value for the field")
	fs.Parse(args)

	if *taskType == "" || *field == "" || *value == "" {
		fs.Usage()
		return fmt.Errorf("taskType, field and value are required")
	}

	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	a, ok := reg.Lookup(*taskType)
	if !ok {
		return fmt.Errorf("no activity with task type %s", *taskType)
	}

	switch *field {
	case "status":
		a.ImplementationStatus = *value
	case "version":
		a.Version = *value
	case "description":
		a.Description = *value
	case "timeout":
		if _, err := time.ParseDuration(*value); err != nil {
			return fmt.Errorf("invalid timeout value: %w", err)
		}
		a.Timeout = *value
	case "retries":
		retries, err := strconv.Atoi(*value)
		if err != nil {
			return fmt.Errorf("invalid retries value: %w", err)
		}
		a.Retries = retries
	default:
		return fmt.Errorf("unknown field: %s", *field)
	}

	reg.LastUpdated = time.Now().Format("2006-01-02")
	if err := saveRegistry(reg, *path); err != nil {
		return err
	}
	fmt.Printf("Updated %s: %s = %s\n", *taskType, *field, *value)
	return nil
}

func runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	path := fs.String("path", defaultRegistryPath, "Path to registry file")
	fs.Parse(args)

	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	problems := validateRegistry(reg)
	if len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintln(os.Stderr, "  -", p)
		}
		return fmt.Errorf("registry validation failed with %d problem(s)", len(problems))
	}
	fmt.Printf("Registry validation passed. Found %d activities.\n", len(reg.Activities))
	return nil
}

// validateRegistry checks field presence, schema compilation and that the
// registry and the worker manager agree on the set of task types.
func validateRegistry(reg *registry.ActivityRegistry) []string {
	var problems []string
	ids := map[string]bool{}
	taskTypes := map[string]bool{}

	for _, a := range reg.Activities {
		switch {
		case a.ID == "":
			problems = append(problems, fmt.Sprintf("activity with task type %q has no id", a.TaskType))
			continue
		case ids[a.ID]:
			problems = append(problems, fmt.Sprintf("duplicate activity id %s", a.ID))
		}
		ids[a.ID] = true

		if a.TaskType == "" {
			problems = append(problems, fmt.Sprintf("%s: missing taskType", a.ID))
		} else if taskTypes[a.TaskType] {
			problems = append(problems, fmt.Sprintf("%s: duplicate taskType %s", a.ID, a.TaskType))
		}
		taskTypes[a.TaskType] = true

		if a.DisplayName == "" || a.Category == "" {
			problems = append(problems, fmt.Sprintf("%s: displayName and category are required", a.ID))
		}
		if _, err := time.ParseDuration(a.Timeout); err != nil {
			problems = append(problems, fmt.Sprintf("%s: invalid timeout %q", a.ID, a.Timeout))
		}
		for name, schema := range map[string]map[string]interface{}{"inputSchema": a.InputSchema, "outputSchema": a.OutputSchema} {
			if len(schema) == 0 {
				continue
			}
			if _, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema)); err != nil {
				problems = append(problems, fmt.Sprintf("%s: %s does not compile: %v", a.ID, name, err))
			}
		}
	}

	for _, tt := range workerTaskTypes {
		if !taskTypes[tt] {
			problems = append(problems, fmt.Sprintf("worker %s has no registry entry", tt))
		}
		delete(taskTypes, tt)
	}
	extra := make([]string, 0, len(taskTypes))
	for tt := range taskTypes {
		extra = append(extra, tt)
	}
	sort.Strings(extra)
	for _, tt := range extra {
		problems = append(problems, fmt.Sprintf("registry entry %s has no worker", tt))
	}
	return problems
}

func saveRegistry(reg *registry.ActivityRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

func help() {
	fmt.Print(`
Usage: registry-updater <command> [flags]

Commands:
  list      Print every activity with its status and timeout
  update    Update one field of an activity
  validate  Check the registry against the worker manager's task types
  help      Show this help message

Examples:
  registry-updater list
  registry-updater update -taskType generate-exam-card -field timeout -value 2m
  registry-updater validate -path pkg/registry/activities.json
`)
}
