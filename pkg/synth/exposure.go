package synth

import (
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/util/intstr"

	"github.com/davidmdm/hangar/pkg/resource"
	"github.com/davidmdm/hangar/pkg/spec"
)

// Exposure produces a ClusterIP Service for services and workers that listen on a port.
func Exposure(_ Config, deployment spec.Deployment) (*resource.Document, error) {
	if !deployment.Kind.LongRunning() || !deployment.HasPort() {
		return nil, nil
	}

	return &resource.Document{
		APIVersion: corev1.SchemeGroupVersion.String(),
		Kind:       "Service",
		Metadata:   metadata(deployment),
		Spec: corev1.ServiceSpec{
			Type:     corev1.ServiceTypeClusterIP,
			Selector: selector(deployment),
			Ports: []corev1.ServicePort{
				{
					Name:       deployment.PortName,
					Protocol:   corev1.ProtocolTCP,
					Port:       deployment.Port,
					TargetPort: intstr.FromString(deployment.PortName),
				},
			},
		},
	}, nil
}
