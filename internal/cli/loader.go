package cli

import (
	"fmt"
	"os"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/sparkpad/internal/model"
	"github.com/roach88/sparkpad/internal/spec"
)

// workflowSchema constrains workflow definition files before any
// decoding happens. Local firework ids must be negative; the allocator
// assigns the real ids at insertion.
const workflowSchema = `
#Task: {
	type:    string & != ""
	params?: {...}
}

#Firework: {
	id:     int & < 0
	name:   string & != ""
	spec?:  {...}
	tasks?: [...#Task]
}

name:       string & != ""
metadata?:  {...}
fireworks:  [#Firework, ...#Firework]
links?:     {[string]: [...int & < 0]}
`

// LoadError reports a workflow definition file problem with the
// unified CLI error code it maps to.
type LoadError struct {
	Code    string
	Path    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
}

type workflowFile struct {
	Name      string           `yaml:"name"`
	Metadata  map[string]any   `yaml:"metadata"`
	Fireworks []fireworkFile   `yaml:"fireworks"`
	Links     map[string][]int64 `yaml:"links"`
}

type fireworkFile struct {
	ID    int64          `yaml:"id"`
	Name  string         `yaml:"name"`
	Spec  map[string]any `yaml:"spec"`
	Tasks []taskFile     `yaml:"tasks"`
}

type taskFile struct {
	Type   string         `yaml:"type"`
	Params map[string]any `yaml:"params"`
}

// LoadWorkflowFile reads a YAML workflow definition, validates it
// against the CUE schema, and builds the unsaved workflow plus its
// member fireworks with their local (negative) ids still in place.
func LoadWorkflowFile(path string) (*model.Workflow, []*model.Firework, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, &LoadError{Code: ErrCodeReadFailed, Path: path, Message: err.Error()}
	}

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, nil, &LoadError{Code: ErrCodeBadYAML, Path: path, Message: err.Error()}
	}

	if err := validateWorkflowDoc(doc); err != nil {
		return nil, nil, &LoadError{Code: ErrCodeSchema, Path: path, Message: err.Error()}
	}

	var file workflowFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, nil, &LoadError{Code: ErrCodeBadYAML, Path: path, Message: err.Error()}
	}
	wf, fws, err := buildWorkflow(&file)
	if err != nil {
		return nil, nil, &LoadError{Code: ErrCodeSchema, Path: path, Message: err.Error()}
	}
	return wf, fws, nil
}

// validateWorkflowDoc unifies the decoded document with the schema.
func validateWorkflowDoc(doc any) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(workflowSchema)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("internal schema error: %w", err)
	}

	data := ctx.Encode(doc)
	if err := data.Err(); err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	unified := schema.Unify(data)
	// Concrete: required fields (name, fireworks, per-firework id) must
	// actually be present, not just satisfiable.
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return err
	}
	return nil
}

// buildWorkflow converts the decoded file into model types.
func buildWorkflow(file *workflowFile) (*model.Workflow, []*model.Firework, error) {
	fws := make([]*model.Firework, len(file.Fireworks))
	for i, ff := range file.Fireworks {
		sp, err := spec.DictFromAny(ff.Spec)
		if err != nil {
			return nil, nil, fmt.Errorf("firework %q: spec: %w", ff.Name, err)
		}

		tasks := make([]model.TaskDef, len(ff.Tasks))
		for j, tf := range ff.Tasks {
			params, err := spec.DictFromAny(tf.Params)
			if err != nil {
				return nil, nil, fmt.Errorf("firework %q: task[%d]: %w", ff.Name, j, err)
			}
			tasks[j] = model.TaskDef{Type: tf.Type, Params: params}
		}

		fws[i] = model.NewFirework(ff.ID, ff.Name, sp, tasks...)
	}

	links := make(map[int64][]int64, len(file.Links))
	for key, children := range file.Links {
		parent, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("links key %q is not an integer id", key)
		}
		links[parent] = children
	}

	metadata, err := spec.DictFromAny(file.Metadata)
	if err != nil {
		return nil, nil, fmt.Errorf("metadata: %w", err)
	}

	wf := model.NewWorkflow(file.Name, fws, links, metadata)
	return wf, fws, nil
}
