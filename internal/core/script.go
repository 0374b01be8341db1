package core

import (
	"fmt"
	"strings"
)

const (
	ScriptElementID = "react-ssr-script"
	RootElementID   = "react-ssr-root"
	ReloadScriptSrc = "/reload/reload.js"
	adapterQueryKey = "ssrid"
)

// HydrationScriptURL tags script with the adapter id. In legacy mode the
// parameter is concatenated with a literal '&', reproducing URLs such as
// "<hash>.js&ssrid=default"; otherwise '?' or '&' is chosen from the shape
// of script.
func HydrationScriptURL(script string, adapter AdapterID, legacy bool) (string, error) {
	if err := validateScript(script); err != nil {
		return "", err
	}
	if adapter == "" {
		adapter = AdapterDefault
	}

	sep := "&"
	if !legacy && !strings.Contains(script, "?") {
		sep = "?"
	}
	return script + sep + adapterQueryKey + "=" + string(adapter), nil
}

func validateScript(script string) error {
	if script == "" {
		return fmt.Errorf("%w: empty", ErrInvalidScript)
	}
	if strings.ContainsAny(script, "\"'<> \t\r\n") {
		return fmt.Errorf("%w: %q contains characters not allowed in an attribute", ErrInvalidScript, script)
	}
	if strings.Contains(script, "#") {
		return fmt.Errorf("%w: %q has a fragment", ErrInvalidScript, script)
	}
	return nil
}
