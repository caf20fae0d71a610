package synth

import (
	monitoringv1 "github.com/prometheus-operator/prometheus-operator/pkg/apis/monitoring/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"

	"github.com/davidmdm/hangar/pkg/resource"
	"github.com/davidmdm/hangar/pkg/spec"
)

// Monitor produces the metrics discovery resource: a ServiceMonitor for services and workers,
// which are reachable through their Service, and a PodMonitor for jobs, which are not.
func Monitor(_ Config, deployment spec.Deployment) (*resource.Document, error) {
	if !deployment.Metrics.Enabled || !deployment.HasPort() {
		return nil, nil
	}

	metrics := deployment.Metrics
	matchLabels := metav1.LabelSelector{MatchLabels: selector(deployment)}
	namespaces := monitoringv1.NamespaceSelector{MatchNames: []string{deployment.Namespace}}

	switch deployment.Kind {
	case spec.Service, spec.Worker:
		return &resource.Document{
			APIVersion: monitoringv1.SchemeGroupVersion.String(),
			Kind:       monitoringv1.ServiceMonitorsKind,
			Metadata:   metadata(deployment),
			Spec: monitoringv1.ServiceMonitorSpec{
				Selector:          matchLabels,
				NamespaceSelector: namespaces,
				Endpoints: []monitoringv1.Endpoint{
					{
						Port:     metrics.PortName,
						Path:     metrics.Path,
						Interval: monitoringv1.Duration(metrics.Interval),
					},
				},
			},
		}, nil

	case spec.Job:
		return &resource.Document{
			APIVersion: monitoringv1.SchemeGroupVersion.String(),
			Kind:       monitoringv1.PodMonitorsKind,
			Metadata:   metadata(deployment),
			Spec: monitoringv1.PodMonitorSpec{
				Selector:          matchLabels,
				NamespaceSelector: namespaces,
				PodMetricsEndpoints: []monitoringv1.PodMetricsEndpoint{
					{
						Port:     ptr.To(metrics.PortName),
						Path:     metrics.Path,
						Interval: monitoringv1.Duration(metrics.Interval),
					},
				},
			},
		}, nil

	default:
		return nil, &spec.UnsupportedKindError{Kind: deployment.Kind.String()}
	}
}
