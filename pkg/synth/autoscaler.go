package synth

import (
	"fmt"
	"math"

	autoscalingv2 "k8s.io/api/autoscaling/v2"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/utils/ptr"

	"github.com/davidmdm/hangar/pkg/resource"
	"github.com/davidmdm/hangar/pkg/spec"
)

// Bounds are the effective autoscaling parameters of a deployment after defaults and overrides.
type Bounds struct {
	MinReplicas int32
	MaxReplicas int32
	CPUTarget   int32

	// MemoryTarget is only set when explicitly requested.
	MemoryTarget *int32
}

// ScalingBounds computes the autoscaling parameters of a deployment:
//
//	min: 1 when replicas is 1, otherwise max(1, replicas/2)
//	max: max(10, replicas*3) for services, max(10, replicas*2) for workers and jobs
//	cpu: 70 for services, 60 for workers and jobs
//
// Every value can be overridden. A minimum above the maximum is a ConfigError.
// scaled multiplies a replica count, saturating at the largest count an HPA accepts.
func scaled(replicas int32, factor int64) int32 {
	return int32(min(int64(replicas)*factor, math.MaxInt32))
}

func ScalingBounds(deployment spec.Deployment) (Bounds, error) {
	replicas := deployment.Replicas

	var bounds Bounds

	if replicas == 1 {
		bounds.MinReplicas = 1
	} else {
		bounds.MinReplicas = max(1, replicas/2)
	}

	switch deployment.Kind {
	case spec.Service:
		bounds.MaxReplicas = max(10, scaled(replicas, 3))
		bounds.CPUTarget = 70
	case spec.Worker, spec.Job:
		bounds.MaxReplicas = max(10, scaled(replicas, 2))
		bounds.CPUTarget = 60
	default:
		return Bounds{}, &spec.UnsupportedKindError{Kind: deployment.Kind.String()}
	}

	overrides := deployment.Autoscaling

	for _, override := range []struct {
		field string
		value *int32
		dst   *int32
	}{
		{field: "min_replicas", value: overrides.MinReplicas, dst: &bounds.MinReplicas},
		{field: "max_replicas", value: overrides.MaxReplicas, dst: &bounds.MaxReplicas},
		{field: "cpu_target", value: overrides.CPUTarget, dst: &bounds.CPUTarget},
		{field: "memory_target", value: overrides.MemoryTarget},
	} {
		if override.value == nil {
			continue
		}
		if *override.value < 1 {
			return Bounds{}, &spec.ValidationError{Field: override.field, Message: fmt.Sprintf("must be at least 1, got %d", *override.value)}
		}
		if override.dst != nil {
			*override.dst = *override.value
		}
	}

	if overrides.MemoryTarget != nil {
		bounds.MemoryTarget = ptr.To(*overrides.MemoryTarget)
	}

	if bounds.MinReplicas > bounds.MaxReplicas {
		return Bounds{}, &spec.ConfigError{
			Field:   "min_replicas",
			Message: fmt.Sprintf("minimum replicas %d exceeds maximum replicas %d", bounds.MinReplicas, bounds.MaxReplicas),
		}
	}

	return bounds, nil
}

// Autoscaler produces a HorizontalPodAutoscaler targeting the deployment's workload.
// Jobs have no scale subresource and never get one.
func Autoscaler(_ Config, deployment spec.Deployment) (*resource.Document, error) {
	if !deployment.Autoscaling.Enabled || !deployment.Kind.LongRunning() {
		return nil, nil
	}

	bounds, err := ScalingBounds(deployment)
	if err != nil {
		return nil, err
	}

	metrics := []autoscalingv2.MetricSpec{utilization(corev1.ResourceCPU, bounds.CPUTarget)}
	if bounds.MemoryTarget != nil {
		metrics = append(metrics, utilization(corev1.ResourceMemory, *bounds.MemoryTarget))
	}

	return &resource.Document{
		APIVersion: autoscalingv2.SchemeGroupVersion.String(),
		Kind:       "HorizontalPodAutoscaler",
		Metadata:   metadata(deployment),
		Spec: autoscalingv2.HorizontalPodAutoscalerSpec{
			ScaleTargetRef: autoscalingv2.CrossVersionObjectReference{
				APIVersion: "apps/v1",
				Kind:       "Deployment",
				Name:       deployment.Name,
			},
			MinReplicas: ptr.To(bounds.MinReplicas),
			MaxReplicas: bounds.MaxReplicas,
			Metrics:     metrics,
			Behavior:    scalingBehavior(),
		},
	}, nil
}

func utilization(name corev1.ResourceName, target int32) autoscalingv2.MetricSpec {
	return autoscalingv2.MetricSpec{
		Type: autoscalingv2.ResourceMetricSourceType,
		Resource: &autoscalingv2.ResourceMetricSource{
			Name: name,
			Target: autoscalingv2.MetricTarget{
				Type:               autoscalingv2.UtilizationMetricType,
				AverageUtilization: ptr.To(target),
			},
		},
	}
}

// scalingBehavior scales down by at most half the pods a minute after five stable minutes,
// and scales up immediately by doubling or adding four pods, whichever is more.
func scalingBehavior() *autoscalingv2.HorizontalPodAutoscalerBehavior {
	return &autoscalingv2.HorizontalPodAutoscalerBehavior{
		ScaleDown: &autoscalingv2.HPAScalingRules{
			StabilizationWindowSeconds: ptr.To[int32](300),
			Policies: []autoscalingv2.HPAScalingPolicy{
				{Type: autoscalingv2.PercentScalingPolicy, Value: 50, PeriodSeconds: 60},
			},
		},
		ScaleUp: &autoscalingv2.HPAScalingRules{
			StabilizationWindowSeconds: ptr.To[int32](0),
			Policies: []autoscalingv2.HPAScalingPolicy{
				{Type: autoscalingv2.PercentScalingPolicy, Value: 100, PeriodSeconds: 15},
				{Type: autoscalingv2.PodsScalingPolicy, Value: 4, PeriodSeconds: 15},
			},
			SelectPolicy: ptr.To(autoscalingv2.MaxChangePolicySelect),
		},
	}
}
