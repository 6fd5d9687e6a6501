// Copyright 2026 The dmnflow Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package builtins

func init() {
	register(Descriptor{Name: "get entries", Params: []string{"context"}, Return: "list", Impl: biGetEntries})
	register(Descriptor{Name: "get value", Params: []string{"context", "key"}, Return: "any", Impl: biGetValue})
	register(Descriptor{Name: "context put", Params: []string{"context", "key", "value"}, Return: "context", Impl: biContextPut})
	register(Descriptor{Name: "context merge", Params: []string{"contexts"}, Return: "context", Impl: biContextMerge})
}

func asContext(fn string, args []any, i int) (map[string]any, error) {
	if i >= len(args) {
		return nil, wrongArgs(fn, "missing argument %d", i)
	}
	c, ok := args[i].(map[string]any)
	if !ok {
		return nil, wrongArgs(fn, "argument %d is not a context: %T", i, args[i])
	}
	return c, nil
}

func biGetEntries(args []any) (any, error) {
	ctx, err := asContext("get entries", args, 0)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(ctx))
	for k, v := range ctx {
		out = append(out, map[string]any{"key": k, "value": v})
	}
	return out, nil
}

func biGetValue(args []any) (any, error) {
	if err := argCount("get value", args, 2); err != nil {
		return nil, err
	}
	ctx, err := asContext("get value", args, 0)
	if err != nil {
		return nil, err
	}
	key, err := argString("get value", args, 1)
	if err != nil {
		return nil, err
	}
	v, ok := ctx[key]
	if !ok {
		return nil, nil
	}
	return v, nil
}

func biContextPut(args []any) (any, error) {
	if err := argCount("context put", args, 3); err != nil {
		return nil, err
	}
	ctx, err := asContext("context put", args, 0)
	if err != nil {
		return nil, err
	}
	key, err := argString("context put", args, 1)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(ctx)+1)
	for k, v := range ctx {
		out[k] = v
	}
	out[key] = args[2]
	return out, nil
}

func biContextMerge(args []any) (any, error) {
	list, err := argList("context merge", args, 0)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	for i, item := range list {
		c, ok := item.(map[string]any)
		if !ok {
			return nil, wrongArgs("context merge", "element %d is not a context: %T", i, item)
		}
		for k, v := range c {
			out[k] = v
		}
	}
	return out, nil
}
