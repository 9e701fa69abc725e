package container

import (
	"fmt"
	"strconv"
)

// PSFormat is the Go template handed to `ps --format`; ParseProcessList
// reads it back.
const PSFormat = "{{.Names}}::{{.Status}}::{{.Ports}}"

// PortBinding publishes a container port on a host port
type PortBinding struct {
	Host      int
	Container int
}

// Bind publishes port on the same host port
func Bind(port int) PortBinding {
	return PortBinding{Host: port, Container: port}
}

// String renders the binding as HOST:CONTAINER for -p
func (b PortBinding) String() string {
	return strconv.Itoa(b.Host) + ":" + strconv.Itoa(b.Container)
}

// LocalURL returns the address the service is reachable at on this machine
func LocalURL(hostPort int) string {
	return fmt.Sprintf("http://localhost:%d", hostPort)
}

// The argument builders below produce the exact argument list handed to
// the engine binary. Values are passed as separate arguments and never
// through a shell.

// VersionArgs queries the engine version
func VersionArgs() []string {
	return []string{"--version"}
}

// BuildArgs builds the image in dir under tag
func BuildArgs(tag, dir string) []string {
	return []string{"build", "-t", tag, "--progress=plain", dir}
}

// RunArgs starts a detached, named, self-removing container
func RunArgs(name, image string, binding PortBinding) []string {
	return []string{"run", "-d", "--name", name, "--rm", "-p", binding.String(), image}
}

// StopArgs stops the named container
func StopArgs(name string) []string {
	return []string{"stop", name}
}

// RemoveArgs force-removes the named container
func RemoveArgs(name string) []string {
	return []string{"rm", "-f", name}
}

// RemoveImageArgs removes the image
func RemoveImageArgs(image string) []string {
	return []string{"rmi", image}
}

// PSArgs lists running containers in PSFormat
func PSArgs() []string {
	return []string{"ps", "--format", PSFormat}
}
