package synth

import (
	"cmp"
	"fmt"
	"strconv"

	appsv1 "k8s.io/api/apps/v1"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	apiresource "k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"

	"github.com/davidmdm/hangar/pkg/resource"
	"github.com/davidmdm/hangar/pkg/spec"
)

const (
	AnnotationFluentBitParser  = "fluentbit.io/parser"
	AnnotationPrometheusScrape = "prometheus.io/scrape"
	AnnotationPrometheusPort   = "prometheus.io/port"
	AnnotationPrometheusPath   = "prometheus.io/path"

	LabelLogging     = "logging"
	LabelEnvironment = "environment"

	jobBackoffLimit = 3
)

// Workload produces the primary runtime resource: a Deployment for services and workers,
// a Job for jobs, or a CronJob for jobs with a schedule.
func Workload(cfg Config, deployment spec.Deployment) (*resource.Document, error) {
	template, err := podTemplate(cfg, deployment)
	if err != nil {
		return nil, err
	}

	switch deployment.Kind {
	case spec.Service, spec.Worker:
		return &resource.Document{
			APIVersion: appsv1.SchemeGroupVersion.String(),
			Kind:       "Deployment",
			Metadata:   metadata(deployment),
			Spec: appsv1.DeploymentSpec{
				Replicas: ptr.To(deployment.Replicas),
				Selector: &metav1.LabelSelector{MatchLabels: selector(deployment)},
				Template: template,
			},
		}, nil

	case spec.Job:
		template.Spec.RestartPolicy = corev1.RestartPolicyOnFailure

		job := batchv1.JobSpec{
			BackoffLimit: ptr.To[int32](jobBackoffLimit),
			Template:     template,
		}

		if deployment.Schedule == "" {
			return &resource.Document{
				APIVersion: batchv1.SchemeGroupVersion.String(),
				Kind:       "Job",
				Metadata:   metadata(deployment),
				Spec:       job,
			}, nil
		}

		return &resource.Document{
			APIVersion: batchv1.SchemeGroupVersion.String(),
			Kind:       "CronJob",
			Metadata:   metadata(deployment),
			Spec: batchv1.CronJobSpec{
				Schedule:    deployment.Schedule,
				JobTemplate: batchv1.JobTemplateSpec{Spec: job},
			},
		}, nil

	default:
		return nil, &spec.UnsupportedKindError{Kind: deployment.Kind.String()}
	}
}

func podTemplate(cfg Config, deployment spec.Deployment) (corev1.PodTemplateSpec, error) {
	env, err := containerEnv(deployment.Env)
	if err != nil {
		return corev1.PodTemplateSpec{}, err
	}

	requirements, err := resourceRequirements(cfg.DefaultResources, deployment.Resources)
	if err != nil {
		return corev1.PodTemplateSpec{}, err
	}

	container := corev1.Container{
		Name:      deployment.Name,
		Image:     deployment.Image,
		Command:   deployment.Command,
		Args:      deployment.Args,
		Env:       env,
		Resources: requirements,
	}

	if len(deployment.ExternalSecrets) > 0 {
		container.EnvFrom = []corev1.EnvFromSource{
			{
				SecretRef: &corev1.SecretEnvSource{
					LocalObjectReference: corev1.LocalObjectReference{Name: spec.SecretName(deployment.Name)},
				},
			},
		}
	}

	if deployment.HasPort() {
		container.Ports = []corev1.ContainerPort{
			{
				Name:          deployment.PortName,
				ContainerPort: deployment.Port,
				Protocol:      corev1.ProtocolTCP,
			},
		}
		container.LivenessProbe = httpProbe(deployment.Probes.LivenessPath, deployment.PortName)
		container.ReadinessProbe = httpProbe(deployment.Probes.ReadinessPath, deployment.PortName)
	}

	labels := selector(deployment)
	annotations := map[string]string{}

	if deployment.Logging.Enabled {
		labels[LabelLogging] = "enabled"
		if deployment.Logging.Environment != "" {
			labels[LabelEnvironment] = deployment.Logging.Environment
		}
		annotations[AnnotationFluentBitParser] = "json"
	}

	if deployment.Metrics.Enabled && deployment.HasPort() {
		annotations[AnnotationPrometheusScrape] = "true"
		annotations[AnnotationPrometheusPort] = strconv.Itoa(int(deployment.Port))
		annotations[AnnotationPrometheusPath] = deployment.Metrics.Path
	}

	if len(annotations) == 0 {
		annotations = nil
	}

	return corev1.PodTemplateSpec{
		ObjectMeta: metav1.ObjectMeta{
			Labels:      labels,
			Annotations: annotations,
		},
		Spec: corev1.PodSpec{
			Containers: []corev1.Container{container},
		},
	}, nil
}

func containerEnv(vars []spec.EnvVar) ([]corev1.EnvVar, error) {
	if len(vars) == 0 {
		return nil, nil
	}

	result := make([]corev1.EnvVar, len(vars))
	for i, env := range vars {
		switch env.Source() {
		case spec.EnvLiteral:
			value, _ := env.Value()
			result[i] = corev1.EnvVar{Name: env.Name(), Value: value}
		case spec.EnvSecretRef:
			ref, _ := env.SecretRef()
			result[i] = corev1.EnvVar{
				Name: env.Name(),
				ValueFrom: &corev1.EnvVarSource{
					SecretKeyRef: &corev1.SecretKeySelector{
						LocalObjectReference: corev1.LocalObjectReference{Name: ref.Secret},
						Key:                  ref.Key,
					},
				},
			}
		default:
			return nil, &spec.ValidationError{Field: "env", Message: fmt.Sprintf("variable %q has no source", env.Name())}
		}
	}

	return result, nil
}

func resourceRequirements(defaults, overrides spec.Resources) (corev1.ResourceRequirements, error) {
	requests, err := resourceList(
		quantity{field: "cpu_request", name: corev1.ResourceCPU, value: cmp.Or(overrides.CPURequest, defaults.CPURequest)},
		quantity{field: "memory_request", name: corev1.ResourceMemory, value: cmp.Or(overrides.MemoryRequest, defaults.MemoryRequest)},
	)
	if err != nil {
		return corev1.ResourceRequirements{}, err
	}

	limits, err := resourceList(
		quantity{field: "cpu_limit", name: corev1.ResourceCPU, value: cmp.Or(overrides.CPULimit, defaults.CPULimit)},
		quantity{field: "memory_limit", name: corev1.ResourceMemory, value: cmp.Or(overrides.MemoryLimit, defaults.MemoryLimit)},
	)
	if err != nil {
		return corev1.ResourceRequirements{}, err
	}

	return corev1.ResourceRequirements{Requests: requests, Limits: limits}, nil
}

type quantity struct {
	field string
	name  corev1.ResourceName
	value string
}

func resourceList(quantities ...quantity) (corev1.ResourceList, error) {
	var result corev1.ResourceList
	for _, quantity := range quantities {
		if quantity.value == "" {
			continue
		}
		value, err := apiresource.ParseQuantity(quantity.value)
		if err != nil {
			return nil, &spec.ConfigError{Field: quantity.field, Message: err.Error()}
		}
		if result == nil {
			result = corev1.ResourceList{}
		}
		result[quantity.name] = value
	}
	return result, nil
}

func httpProbe(path, port string) *corev1.Probe {
	if path == "" {
		return nil
	}
	return &corev1.Probe{
		ProbeHandler: corev1.ProbeHandler{
			HTTPGet: &corev1.HTTPGetAction{
				Path: path,
				Port: intstr.FromString(port),
			},
		},
	}
}
