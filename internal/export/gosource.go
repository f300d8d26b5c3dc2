package export

import (
	"fmt"
	"strings"

	"github.com/svclabs/swaggersvc/internal/model"
)

// GoSource renders the compiled model as a Go source file embedding its
// normalized JSON form, so host applications can compile the description in
// instead of fetching it at startup.
func GoSource(sm *model.ServiceModel, pkg string) ([]byte, error) {
	if strings.TrimSpace(pkg) == "" {
		pkg = "servicedesc"
	}
	data, err := JSON(sm)
	if err != nil {
		return nil, err
	}
	// Raw string literals cannot contain backticks.
	body := strings.ReplaceAll(string(data), "`", "` + \"`\" + `")

	var b strings.Builder
	fmt.Fprintf(&b, "// Code generated by swaggersvc. DO NOT EDIT.\n\n")
	fmt.Fprintf(&b, "package %s\n\n", pkg)
	fmt.Fprintf(&b, "// ServiceModelJSON is the normalized description of the %s service.\n", sm.Name)
	fmt.Fprintf(&b, "const ServiceModelJSON = `%s`\n", body)
	return []byte(b.String()), nil
}
