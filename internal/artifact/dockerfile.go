package artifact

import (
	"bytes"
	"fmt"
	"text/template"

	"chatdock/internal/constants"
)

// BuildTemplate holds the launcher-level settings the Dockerfile is
// rendered from. None of them change between launches.
type BuildTemplate struct {
	BaseImage      string
	Repository     string
	PipIndexURL    string
	ConfigFileName string
	AppDir         string
}

// DefaultBuildTemplate returns the template used when no settings override it
func DefaultBuildTemplate() BuildTemplate {
	return BuildTemplate{
		BaseImage:      constants.DefaultBaseImage,
		Repository:     constants.DefaultUpstreamRepository,
		ConfigFileName: constants.ConfigFileName,
		AppDir:         "/chatgpt_academic",
	}
}

var dockerfileTemplate = template.Must(template.New("Dockerfile").Parse(`FROM {{.BaseImage}}

RUN apt-get clean && apt-get update && apt-get install -y git
{{- if .PipIndexURL}}

RUN echo '[global]' > /etc/pip.conf && \
    echo 'index-url = {{.PipIndexURL}}' >> /etc/pip.conf
{{- end}}

RUN git clone {{.Repository}} {{.AppDir}} && \
    pip3 install gradio requests[socks] mdtex2html && \
    if [ -f {{.AppDir}}/requirements.txt ]; then pip3 install -r {{.AppDir}}/requirements.txt; fi

COPY {{.ConfigFileName}} {{.AppDir}}/{{.ConfigFileName}}

WORKDIR {{.AppDir}}

CMD ["python3", "-u", "main.py"]
`))

// RenderBuildDescriptor renders the Dockerfile for the service image
func RenderBuildDescriptor(t BuildTemplate) (string, error) {
	defaults := DefaultBuildTemplate()
	if t.BaseImage == "" {
		t.BaseImage = defaults.BaseImage
	}
	if t.Repository == "" {
		t.Repository = defaults.Repository
	}
	if t.ConfigFileName == "" {
		t.ConfigFileName = defaults.ConfigFileName
	}
	if t.AppDir == "" {
		t.AppDir = defaults.AppDir
	}

	var buf bytes.Buffer
	if err := dockerfileTemplate.Execute(&buf, t); err != nil {
		return "", fmt.Errorf("failed to render Dockerfile: %w", err)
	}
	return buf.String(), nil
}
