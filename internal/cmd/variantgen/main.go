// variantgen writes the shape-specialised kernel variant table of
// internal/kernels: the Variant constants, their precedence order and the
// switch that binds each variant to its fixed-shape engine call.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path"
	"text/template"

	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"
)

type VariantInfo struct {
	Const  string
	Suffix string
	Form   string
	K      int
	Pad    string
	Call   string
}

type FamilyInfo struct {
	Family     string
	Prefix     string
	Order      string
	Runner     string
	TypeParams string
	TypeArgs   string
	ArgsType   string
	Variants   []VariantInfo
}

type Data struct {
	Families []FamilyInfo
}

var (
	convSizes      = []int{10, 9, 8, 7, 6, 5, 4, 3, 2}
	depthwiseSizes = []int{7, 5, 3}
	poolSizes      = []int{3, 2}

	fileName = flag.String("out", "gen_variants.go", "Name of the generated file, relative to the working directory.")
)

// squares returns the nopad/krnpad pair of every size, largest first.
func squares(family, engineFn string, sizes []int) []VariantInfo {
	out := make([]VariantInfo, 0, 2*len(sizes))
	for _, k := range sizes {
		out = append(out,
			VariantInfo{
				Const:  fmt.Sprintf("%sK%dx%dNopad", family, k, k),
				Suffix: fmt.Sprintf("k%dx%d_nopad", k, k),
				Form:   "formFixed", K: k, Pad: "engine.PadNone",
				Call: fmt.Sprintf("%s(a, engine.Fixed{KW: %d, KH: %d, Pad: engine.PadNone})", engineFn, k, k),
			},
			VariantInfo{
				Const:  fmt.Sprintf("%sK%dx%dKrnpad", family, k, k),
				Suffix: fmt.Sprintf("k%dx%d_krnpad", k, k),
				Form:   "formFixed", K: k, Pad: "engine.PadSplit",
				Call: fmt.Sprintf("%s(a, engine.Fixed{KW: %d, KH: %d, Pad: engine.PadSplit})", engineFn, k, k),
			})
	}
	return out
}

// degenerate returns the single-column and single-row variants.
func degenerate(family, engineFn string) []VariantInfo {
	return []VariantInfo{
		{
			Const: family + "K1xnKrnpad", Suffix: "k1xn_krnpad",
			Form: "formColumn", Pad: "engine.PadSplit",
			Call: engineFn + "(a, engine.Fixed{KW: 1, Pad: engine.PadSplit})",
		},
		{
			Const: family + "Knx1Krnpad", Suffix: "knx1_krnpad",
			Form: "formRow", Pad: "engine.PadSplit",
			Call: engineFn + "(a, engine.Fixed{KH: 1, Pad: engine.PadSplit})",
		},
	}
}

func generic(family, engineFn string) VariantInfo {
	return VariantInfo{
		Const: family + "Generic", Suffix: "generic",
		Form: "formGeneric", Pad: "engine.PadKernel",
		Call: engineFn + "(a, engine.Fixed{Pad: engine.PadKernel})",
	}
}

func buildData() Data {
	conv := squares("Conv2D", "engine.Conv2D", convSizes)
	conv = append(conv, VariantInfo{
		Const: "Conv2DK1x1Nopad", Suffix: "k1x1_nopad",
		Form: "formPointwise", K: 1, Pad: "engine.PadNone",
		Call: "engine.Pointwise(a)",
	})
	conv = append(conv, degenerate("Conv2D", "engine.Conv2D")...)
	conv = append(conv, generic("Conv2D", "engine.Conv2D"))

	dw := squares("Depthwise", "engine.Depthwise", depthwiseSizes)
	dw = append(dw, degenerate("Depthwise", "engine.Depthwise")...)
	dw = append(dw, generic("Depthwise", "engine.Depthwise"))

	pool := squares("Pool", "engine.Pool", poolSizes)
	pool = append(pool, generic("Pool", "engine.Pool"))

	convParams := "[I, W, B qmath.Storage, A constraints.Signed]"
	return Data{Families: []FamilyInfo{
		{
			Family: "familyConv2D", Prefix: "conv2d", Order: "conv2DOrder", Runner: "runConv2D",
			TypeParams: convParams, TypeArgs: "[I, W, B, A]", ArgsType: "*engine.ConvArgs[I, W, B, A]",
			Variants: conv,
		},
		{
			Family: "familyDepthwise", Prefix: "depthwise_conv2d", Order: "depthwiseOrder", Runner: "runDepthwise",
			TypeParams: convParams, TypeArgs: "[I, W, B, A]", ArgsType: "*engine.ConvArgs[I, W, B, A]",
			Variants: dw,
		},
		{
			Family: "familyPool", Prefix: "pool", Order: "poolOrder", Runner: "runPool",
			TypeParams: "[I qmath.Storage]", TypeArgs: "[I]", ArgsType: "*engine.PoolArgs[I]",
			Variants: pool,
		},
	}}
}

const tmplText = `/***** File generated by ./internal/cmd/variantgen. Don't edit it directly. *****/

package kernels

import (
	"golang.org/x/exp/constraints"

	"github.com/samcharles93/qconv/internal/engine"
	"github.com/samcharles93/qconv/internal/qmath"
)

const (
{{- range $fi, $f := .Families }}
{{- range $vi, $v := .Variants }}
{{- if and (eq $fi 0) (eq $vi 0) }}
	{{ $v.Const }} Variant = iota
{{- else }}
	{{ $v.Const }}
{{- end }}
{{- end }}
{{- end }}
	numVariants
)

var variantTable = [numVariants]variantInfo{
{{- range .Families }}
{{- $f := . }}
{{- range .Variants }}
	{{ .Const }}: {family: {{ $f.Family }}, prefix: "{{ $f.Prefix }}", suffix: "{{ .Suffix }}", form: {{ .Form }}, k: {{ .K }}, pad: {{ .Pad }}},
{{- end }}
{{- end }}
}

{{- range .Families }}

// {{ .Order }} is the dispatch precedence of the {{ .Prefix }} variants.
var {{ .Order }} = []Variant{
{{- range .Variants }}
	{{ .Const }},
{{- end }}
}
{{- end }}

{{- range .Families }}

func {{ .Runner }}{{ .TypeParams }}(v Variant, a {{ .ArgsType }}) {
	switch v {
{{- range .Variants }}
	case {{ .Const }}:
		{{ .Call }}
{{- end }}
	default:
		panic("kernels: {{ .Runner }} given variant " + v.String())
	}
}
{{- end }}
`

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	tmpl := template.Must(template.New(*fileName).Parse(tmplText))
	fullPath := path.Join(must.M1(os.Getwd()), *fileName)
	f := must.M1(os.Create(fullPath))
	must.M(tmpl.Execute(f, buildData()))
	must.M(f.Close())

	cmd := exec.Command("gofmt", "-w", fullPath)
	klog.V(1).Infof("\t%s\n", cmd)
	must.M(cmd.Run())
	fmt.Printf("variantgen: successfully generated %s\n", fullPath)
}
