package dispatch

import (
	"context"
	"iter"

	"github.com/vietdv277/shotty/pkg/provider"
	"github.com/vietdv277/shotty/pkg/types"
)

// Resolve returns the instances selected by project. An empty project selects every
// instance in the account and region; otherwise only instances whose Project tag is
// exactly project are yielded. Provider errors are yielded unchanged.
func Resolve(ctx context.Context, p provider.ComputeProvider, project string) iter.Seq2[types.Instance, error] {
	src := p.Instances(ctx, &provider.InstanceFilter{Project: project})
	if project == "" {
		return src
	}

	return func(yield func(types.Instance, error) bool) {
		for inst, err := range src {
			if err != nil {
				yield(inst, err)
				return
			}
			if !inst.InProject(project) {
				continue
			}
			if !yield(inst, nil) {
				return
			}
		}
	}
}
