// Package argo defines the subset of the Argo Workflows v1alpha1 resource schema
// that argonaut emits.
//
// Field names mirror the upstream API exactly; they are the compatibility contract
// with the orchestrator. Fields deliberately carry no omitempty: an unpruned
// document shows every field, and empty values are removed by the serializer's
// pruning step instead. Optional scalars are pointers so that an unset value prunes
// while an explicit false or 0 survives.
package argo

// Resource identity constants.
const (
	// APIVersion is the apiVersion of every emitted Workflow.
	APIVersion = "argoproj.io/v1alpha1"

	// KindWorkflow is the kind of every emitted Workflow.
	KindWorkflow = "Workflow"
)

// Workflow is the top-level Argo Workflow resource.
type Workflow struct {
	APIVersion string         `yaml:"apiVersion"`
	Kind       string         `yaml:"kind"`
	Metadata   ObjectMeta     `yaml:"metadata"`
	Spec       WorkflowSpec   `yaml:"spec"`
	Status     WorkflowStatus `yaml:"status"`
}

// ObjectMeta is the Kubernetes object metadata subset used by workflows.
type ObjectMeta struct {
	Name         string            `yaml:"name"`
	GenerateName string            `yaml:"generateName"`
	Namespace    string            `yaml:"namespace"`
	Labels       map[string]string `yaml:"labels"`
	Annotations  map[string]string `yaml:"annotations"`
}

// WorkflowSpec is the specification block of a Workflow.
type WorkflowSpec struct {
	Entrypoint         string     `yaml:"entrypoint"`
	Templates          []Template `yaml:"templates"`
	Arguments          *Arguments `yaml:"arguments"`
	ServiceAccountName string     `yaml:"serviceAccountName"`
	OnExit             string     `yaml:"onExit"`
}

// WorkflowStatus is required by the resource schema but always empty when authoring.
type WorkflowStatus struct{}

// Template is a reusable unit of work within a workflow.
type Template struct {
	Name                  string            `yaml:"name"`
	Inputs                *Inputs           `yaml:"inputs"`
	Outputs               *Outputs          `yaml:"outputs"`
	Metadata              *Metadata         `yaml:"metadata"`
	NodeSelector          map[string]string `yaml:"nodeSelector"`
	Container             *Container        `yaml:"container"`
	Script                *ScriptTemplate   `yaml:"script"`
	Resource              *ResourceTemplate `yaml:"resource"`
	Steps                 [][]WorkflowStep  `yaml:"steps"`
	DAG                   *DAGTemplate      `yaml:"dag"`
	ActiveDeadlineSeconds *int64            `yaml:"activeDeadlineSeconds"`
	RetryStrategy         *RetryStrategy    `yaml:"retryStrategy"`
	ServiceAccountName    string            `yaml:"serviceAccountName"`
}

// Metadata holds labels and annotations applied to a template's pod.
type Metadata struct {
	Labels      map[string]string `yaml:"labels"`
	Annotations map[string]string `yaml:"annotations"`
}

// Container describes the container a template runs.
type Container struct {
	Name            string                `yaml:"name"`
	Image           string                `yaml:"image"`
	Command         []string              `yaml:"command"`
	Args            []string              `yaml:"args"`
	WorkingDir      string                `yaml:"workingDir"`
	Env             []EnvVar              `yaml:"env"`
	Resources       *ResourceRequirements `yaml:"resources"`
	VolumeMounts    []VolumeMount         `yaml:"volumeMounts"`
	ImagePullPolicy string                `yaml:"imagePullPolicy"`
}

// ScriptTemplate is a container whose command runs an inline source.
type ScriptTemplate struct {
	Container `yaml:",inline"`
	Source    string `yaml:"source"`
}

// ResourceTemplate performs an action on a Kubernetes resource.
type ResourceTemplate struct {
	Action            string `yaml:"action"`
	Manifest          string `yaml:"manifest"`
	SuccessCondition  string `yaml:"successCondition"`
	FailureCondition  string `yaml:"failureCondition"`
	SetOwnerReference *bool  `yaml:"setOwnerReference"`
}

// EnvVar is an environment variable set in a container.
type EnvVar struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// VolumeMount mounts a volume into a container.
type VolumeMount struct {
	Name      string `yaml:"name"`
	MountPath string `yaml:"mountPath"`
	ReadOnly  *bool  `yaml:"readOnly"`
}

// ResourceRequirements holds compute resource limits and requests.
type ResourceRequirements struct {
	Limits   map[string]string `yaml:"limits"`
	Requests map[string]string `yaml:"requests"`
}

// Inputs are the parameters and artifacts a template consumes.
type Inputs struct {
	Parameters []Parameter `yaml:"parameters"`
	Artifacts  []Artifact  `yaml:"artifacts"`
}

// Outputs are the parameters and artifacts a template produces.
type Outputs struct {
	Parameters []Parameter `yaml:"parameters"`
	Artifacts  []Artifact  `yaml:"artifacts"`
	Result     *string     `yaml:"result"`
}

// Arguments are the values passed to a workflow, step or task.
type Arguments struct {
	Parameters []Parameter `yaml:"parameters"`
	Artifacts  []Artifact  `yaml:"artifacts"`
}

// Parameter is a named string value.
type Parameter struct {
	Name        string     `yaml:"name"`
	Value       *string    `yaml:"value"`
	Default     *string    `yaml:"default"`
	Enum        []string   `yaml:"enum"`
	Description *string    `yaml:"description"`
	ValueFrom   *ValueFrom `yaml:"valueFrom"`
}

// ValueFrom describes where an output parameter's value comes from.
type ValueFrom struct {
	Path       string `yaml:"path"`
	Parameter  string `yaml:"parameter"`
	Expression string `yaml:"expression"`
}

// Artifact is a named file or directory passed between templates.
type Artifact struct {
	Name     string `yaml:"name"`
	Path     string `yaml:"path"`
	From     string `yaml:"from"`
	Optional *bool  `yaml:"optional"`
}

// WorkflowStep is one step of a steps template. Steps in the same inner list run
// in parallel.
type WorkflowStep struct {
	Name      string     `yaml:"name"`
	Template  string     `yaml:"template"`
	Arguments *Arguments `yaml:"arguments"`
	When      string     `yaml:"when"`
	WithItems []any      `yaml:"withItems"`
	WithParam string     `yaml:"withParam"`
}

// DAGTemplate is a template whose tasks form a dependency graph.
type DAGTemplate struct {
	Target   string    `yaml:"target"`
	Tasks    []DAGTask `yaml:"tasks"`
	FailFast *bool     `yaml:"failFast"`
}

// DAGTask is one node of a DAG template.
type DAGTask struct {
	Name         string     `yaml:"name"`
	Template     string     `yaml:"template"`
	Arguments    *Arguments `yaml:"arguments"`
	Dependencies []string   `yaml:"dependencies"`
	Depends      string     `yaml:"depends"`
	When         string     `yaml:"when"`
	WithItems    []any      `yaml:"withItems"`
	WithParam    string     `yaml:"withParam"`
}

// RetryStrategy controls how a failed template is retried by the orchestrator.
type RetryStrategy struct {
	Limit       *int32 `yaml:"limit"`
	RetryPolicy string `yaml:"retryPolicy"`
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool { return &b }

// Int64Ptr returns a pointer to n.
func Int64Ptr(n int64) *int64 { return &n }

// Int32Ptr returns a pointer to n.
func Int32Ptr(n int32) *int32 { return &n }
