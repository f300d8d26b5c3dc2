package build

import (
	"net/url"
	"strings"

	"github.com/svclabs/swaggersvc/internal/descr"
	"github.com/svclabs/swaggersvc/internal/model"
)

// buildOperation compiles one source operation declared under apiPath.
// Overrides and class-contract validation are applied later, when the
// builder finalizes, so overrides registered after this point still bind.
func buildOperation(t *transformer, src descr.Operation, apiPath, baseURL string) (*model.Operation, error) {
	name := strings.TrimSpace(src.Nickname)
	if name == "" {
		name = synthesizeName(src.Method, apiPath)
	}

	op := &model.Operation{
		Name:        name,
		Method:      strings.ToUpper(strings.TrimSpace(src.Method)),
		URI:         relativize(model.MergeURL(apiPath, baseURL), baseURL),
		Summary:     strings.TrimSpace(src.Summary),
		Description: strings.TrimSpace(src.Notes),
	}

	for _, pf := range src.Parameters {
		p, err := t.transform(pf, model.LocQuery)
		if err != nil {
			return nil, err
		}
		if p.Location == "path" || p.Location == model.LocURI {
			// The source format disallows optional path parameters even
			// though it does not always mark them required.
			p.Location = model.LocURI
			p.Required = true
		}
		op.Parameters = append(op.Parameters, p)
	}

	contract, err := inferContract(t, src)
	if err != nil {
		return nil, err
	}
	op.Response = contract

	for _, rm := range src.ResponseMessages {
		op.Errors = append(op.Errors, model.ErrorResponse{Code: rm.Code, Phrase: rm.Message})
	}

	return op, nil
}

// inferContract resolves the operation's declared response into a contract.
// An absent or void type means no decoding at all. A declared type compiles
// through the schema transformer; a token that is neither canonical nor a
// registered model becomes a class contract, checked against the decoder
// table when the builder finalizes.
func inferContract(t *transformer, src descr.Operation) (model.ResponseContract, error) {
	srcType := strings.TrimSpace(src.Type)
	if (srcType == "" || srcType == "void") && len(src.Items) == 0 {
		return model.ResponseContract{Kind: model.ContractNone}, nil
	}

	frag := map[string]any{}
	if srcType != "" {
		frag["type"] = srcType
	}
	if src.Format != "" {
		frag["format"] = src.Format
	}
	if len(src.Items) > 0 {
		frag["items"] = src.Items
	}

	s, err := t.transform(frag, model.LocBody)
	if err != nil {
		return model.ResponseContract{}, err
	}
	if !s.IsRef() && !s.Kind.Canonical() {
		return model.ResponseContract{Kind: model.ContractClass, Class: string(s.Kind)}, nil
	}
	return model.ResponseContract{Kind: model.ContractModel, Schema: s}, nil
}

// synthesizeName derives an operation name from its method and path when no
// nickname is declared: lowercased method, slashes to underscores, template
// braces dropped.
func synthesizeName(method, path string) string {
	p := strings.Trim(strings.TrimSpace(path), "/")
	p = strings.NewReplacer("{", "", "}", "").Replace(p)
	p = strings.ReplaceAll(p, "/", "_")
	m := strings.ToLower(strings.TrimSpace(method))
	if p == "" {
		return m
	}
	return m + "_" + p
}

// relativize strips the scheme and host from merged when it is rooted under
// the service's own base URL, keeping stored templates portable across base
// URL changes.
func relativize(merged, base string) string {
	bu, err := url.Parse(model.MergeURL("", base))
	if err != nil || bu.Host == "" {
		return merged
	}
	prefix := bu.Scheme + "://" + bu.Host
	if merged == prefix {
		return "/"
	}
	if strings.HasPrefix(merged, prefix+"/") || strings.HasPrefix(merged, prefix+"?") {
		return strings.TrimPrefix(merged, prefix)
	}
	return merged
}
