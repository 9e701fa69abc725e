package container

import (
	"chatdock/internal/validation"
)

// validateIdentity checks the container name and image tag before either is
// placed in an argument list
func validateIdentity(name, image string) error {
	if err := validation.ContainerName(name); err != nil {
		return err
	}
	return validation.ImageTag(image)
}

// validateBinding checks both sides of a port publication
func validateBinding(b PortBinding) error {
	if err := validation.Port(b.Host); err != nil {
		return err
	}
	return validation.Port(b.Container)
}
