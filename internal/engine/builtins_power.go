package engine

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"embermoo/internal/scripting"
)

// cmdDig creates a new room, links an exit to it from the caller's current
// room (design note #2: recent generations auto-link bidirectionally, which
// this implementation follows: the new room gets an exit back named after
// the current room). The caller stays where they are.
func cmdDig(ctx *ActionContext, arg string) error {
	name := strings.TrimSpace(arg)
	if name == "" {
		return ErrBadSyntax("dig <room>")
	}
	room := NewObject(KindRoom, name, "A blank room.")
	ctx.DB.Add(room)

	if ctx.Caller.HasLocation {
		if here := ctx.DB.Get(ctx.Caller.Location); here != nil && here.Kind == KindRoom {
			here.Exits[name] = room.ID
			room.Exits[here.Name] = here.ID
		}
	}
	ctx.Send(fmt.Sprintf("Created room #%d: %s", room.ID, room.Name))
	return nil
}

// cmdLink adds a one-way exit from here to the named room (§9: the engine
// does not enforce two-way exits).
func cmdLink(ctx *ActionContext, arg string) error {
	name := trimLeadingWord(arg, "to")
	if name == "" || !ctx.Caller.HasLocation {
		return ErrBadSyntax("link [to] <room>")
	}
	target := ctx.DB.Dbref(name)
	if target == nil {
		for _, r := range ctx.DB.ListAll(KindRoom) {
			if MatchName(name, r.Name) {
				target = r
				break
			}
		}
	}
	if target == nil {
		return ErrObjectNotFound(name)
	}
	here := ctx.DB.Get(ctx.Caller.Location)
	here.Exits[target.Name] = target.ID
	return nil
}

func cmdUnlink(ctx *ActionContext, arg string) error {
	if arg == "" || !ctx.Caller.HasLocation {
		return ErrBadSyntax("unlink <room>")
	}
	here := ctx.DB.Get(ctx.Caller.Location)
	names := make([]string, 0, len(here.Exits))
	for n := range here.Exits {
		names = append(names, n)
	}
	matches := MatchList(arg, names)
	if len(matches) == 0 {
		return ErrObjectNotFound(arg)
	}
	if len(matches) > 1 {
		return ErrAmbiguous(matches)
	}
	delete(here.Exits, matches[0])
	return nil
}

func cmdTeleport(ctx *ActionContext, arg string) error {
	name := trimLeadingWord(arg, "to")
	target := ctx.DB.Dbref(name)
	if target == nil {
		for _, r := range ctx.DB.ListAll(KindRoom) {
			if MatchName(name, r.Name) {
				target = r
				break
			}
		}
	}
	if target == nil {
		return ErrObjectNotFound(name)
	}
	moveObject(ctx.DB, ctx.Caller, target)
	ctx.Send(describeRoom(ctx.DB, target))
	return nil
}

func cmdMake(ctx *ActionContext, arg string) error {
	name := strings.TrimSpace(arg)
	if name == "" {
		return ErrBadSyntax("make <thing>")
	}
	thing := NewObject(KindThing, name, "A nondescript thing.")
	ctx.DB.Add(thing)
	if ctx.Caller.HasLocation {
		here := ctx.DB.Get(ctx.Caller.Location)
		moveObject(ctx.DB, thing, here)
	}
	ctx.Send(fmt.Sprintf("Created thing #%d: %s", thing.ID, thing.Name))
	return nil
}

// cmdClone copies the named object (§4.2): a fresh instance of the same
// kind, same name, with attributes/flags/exits deep-copied and its custom
// commands re-bound to the new id once Database.Add assigns one. The clone
// is dropped in the caller's current room, same as a freshly made thing.
func cmdClone(ctx *ActionContext, arg string) error {
	name := strings.TrimSpace(arg)
	if name == "" {
		return ErrBadSyntax("clone <object>")
	}
	target, err := resolveByRefOrName(ctx, name)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrObjectNotFound(name)
	}
	clone := target.Clone()
	ctx.DB.Add(clone)
	clone.RebindOwner()
	if ctx.Caller.HasLocation {
		here := ctx.DB.Get(ctx.Caller.Location)
		moveObject(ctx.DB, clone, here)
	}
	ctx.Send(fmt.Sprintf("Created clone #%d: %s", clone.ID, clone.Name))
	return nil
}

// cmdDestroy removes the named object from the graph. Destroying a room
// relocates its contents to the caller's location and the room disappears
// from the caller's own exits; per design note #3, the whole database is
// searched by id so destroying something held elsewhere still works, but
// the demolition notice is only ever emitted into the caller's room.
func cmdDestroy(ctx *ActionContext, arg string) error {
	if arg == "" {
		return ErrBadSyntax("destroy <thing>")
	}
	target := ctx.DB.Dbref(arg)
	if target == nil {
		var err error
		target, err = findInContents(ctx.DB, ctx.Caller, arg)
		if err != nil {
			return err
		}
	}
	if target == nil && ctx.Caller.HasLocation {
		if here := ctx.DB.Get(ctx.Caller.Location); here != nil {
			var err error
			target, err = findInContents(ctx.DB, here, arg)
			if err != nil {
				return err
			}
		}
	}
	if target == nil {
		return ErrObjectNotFound(arg)
	}

	if target.Kind == KindRoom {
		if ctx.Caller.HasLocation {
			dest := ctx.DB.Get(ctx.Caller.Location)
			// moveObject rewrites target.Contents, so iterate over a copy.
			for _, id := range append([]ID(nil), target.Contents...) {
				if obj := ctx.DB.Get(id); obj != nil {
					moveObject(ctx.DB, obj, dest)
				}
			}
			delete(dest.Exits, target.Name)
		}
		broadcastLocation(ctx, ctx.Caller, fmt.Sprintf("%s crumbles into dust.", target.Name), nil)
	} else if target.HasLocation {
		if loc := ctx.DB.Get(target.Location); loc != nil {
			loc.Contents = removeID(loc.Contents, target.ID)
		}
	}
	ctx.DB.Remove(target)
	return nil
}

func cmdEval(ctx *ActionContext, arg string) error {
	program, err := ctx.Cache.Compile(fmt.Sprintf("return %s", scripting.Unescape(arg)))
	if err != nil {
		return err
	}
	result, err := program.Run(ctx.Envs.CommandEnv(ctx, ctx.Caller, arg, nil))
	if err != nil {
		return err
	}
	ctx.Send(fmt.Sprint(result))
	return nil
}

func cmdExec(ctx *ActionContext, arg string) error {
	program, err := ctx.Cache.Compile(scripting.Unescape(arg))
	if err != nil {
		return err
	}
	_, err = program.Run(ctx.Envs.CommandEnv(ctx, ctx.Caller, arg, nil))
	return err
}

// cmdExamine dumps an object's own attribute/command table, read directly
// from its fields; values inherited through the parent chain are not shown
// (SUPPLEMENTED FEATURES: examine's output shape).
func cmdExamine(ctx *ActionContext, arg string) error {
	target, err := resolveByRefOrName(ctx, arg)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrObjectNotFound(arg)
	}
	var lines []string
	lines = append(lines, fmt.Sprintf("#%d %s (%s)", target.ID, target.Name, target.Kind))
	lines = append(lines, fmt.Sprintf("description: %s", target.Description))

	var flags []string
	for f := range target.Flags {
		flags = append(flags, f)
	}
	sort.Strings(flags)
	lines = append(lines, fmt.Sprintf("flags: %s", strings.Join(flags, ", ")))

	var attrs []string
	for a := range target.Attributes {
		attrs = append(attrs, a)
	}
	sort.Strings(attrs)
	for _, a := range attrs {
		lines = append(lines, fmt.Sprintf("%s: %v", a, target.Attributes[a]))
	}

	var cmds []string
	for c := range target.CustomCommands {
		cmds = append(cmds, c)
	}
	sort.Strings(cmds)
	lines = append(lines, fmt.Sprintf("commands: %s", strings.Join(cmds, ", ")))

	ctx.Send(strings.Join(lines, "\n"))
	return nil
}

// resolveByRefOrName honors SUPPLEMENTED FEATURES: examine/setattr/delattr
// accept "#<id>" directly, bypassing name search.
func resolveByRefOrName(ctx *ActionContext, name string) (*Object, error) {
	if obj := ctx.DB.Dbref(name); obj != nil {
		return obj, nil
	}
	return resolveVisible(ctx, name)
}

func cmdSetAttr(ctx *ActionContext, arg string) error {
	objName, rest := splitFirstWord(arg)
	attrName, valueSrc := splitFirstWord(rest)
	if objName == "" || attrName == "" {
		return ErrBadSyntax("setattr <object> <attr> [lambda:] <value>")
	}
	target, err := resolveByRefOrName(ctx, objName)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrObjectNotFound(objName)
	}
	if strings.HasPrefix(valueSrc, "lambda:") {
		target.Attributes[attrName] = &Lambda{
			Source: strings.TrimSpace(strings.TrimPrefix(valueSrc, "lambda:")),
		}
		return nil
	}
	return target.setAttr(attrName, scripting.Unescape(valueSrc))
}

func cmdDelAttr(ctx *ActionContext, arg string) error {
	objName, attrName := splitFirstWord(arg)
	if objName == "" || attrName == "" {
		return ErrBadSyntax("delattr <object> <attr>")
	}
	target, err := resolveByRefOrName(ctx, objName)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrObjectNotFound(objName)
	}
	return target.delAttr(attrName)
}

func cmdCmd(ctx *ActionContext, arg string) error {
	objName, rest := splitFirstWord(arg)
	nameSpec, code := splitFirstWord(rest)
	if objName == "" || nameSpec == "" || code == "" {
		return ErrBadSyntax("cmd <object> <name>[:<flags>] <code>")
	}
	target, err := resolveByRefOrName(ctx, objName)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrObjectNotFound(objName)
	}
	name, flagSpec := splitFlagSuffix(nameSpec)
	target.CustomCommands[name] = &CommandRecord{
		Name:    name,
		Source:  code,
		Flags:   ParseCommandFlags(flagSpec),
		OwnerID: target.ID,
	}
	return nil
}

// cmdMatch authors a regex matcher: `match <object> [<name>[:<flags>]:]<regex-literal> <code>`.
func cmdMatch(ctx *ActionContext, arg string) error {
	objName, rest := splitFirstWord(arg)
	spec, code := splitFirstWord(rest)
	if objName == "" || spec == "" || code == "" {
		return ErrBadSyntax("match <object> [<name>[:<flags>]:]<regex> <code>")
	}
	target, err := resolveByRefOrName(ctx, objName)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrObjectNotFound(objName)
	}
	name := spec
	flagSpec := ""
	pattern := spec
	if idx := strings.LastIndex(spec, ":"); idx >= 0 {
		name, flagSpec = splitFlagSuffix(spec[:idx])
		pattern = spec[idx+1:]
	}
	if _, err := regexp.Compile(pattern); err != nil {
		return ErrBadSyntax("invalid regex: " + err.Error())
	}
	target.CustomCommands[name] = &CommandRecord{
		Name:    name,
		Regex:   pattern,
		Source:  code,
		Flags:   ParseCommandFlags(flagSpec),
		OwnerID: target.ID,
	}
	return nil
}

func cmdDelCmd(ctx *ActionContext, arg string) error {
	objName, name := splitFirstWord(arg)
	if objName == "" || name == "" {
		return ErrBadSyntax("delcmd <object> <name>")
	}
	target, err := resolveByRefOrName(ctx, objName)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrObjectNotFound(objName)
	}
	delete(target.CustomCommands, name)
	return nil
}

func cmdSetEvent(ctx *ActionContext, arg string) error {
	objName, rest := splitFirstWord(arg)
	event, code := splitFirstWord(rest)
	if objName == "" || event == "" || code == "" {
		return ErrBadSyntax("setevent <object> <event> <code>")
	}
	target, err := resolveByRefOrName(ctx, objName)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrObjectNotFound(objName)
	}
	target.CustomEvents[event] = code
	return nil
}

func cmdDelEvent(ctx *ActionContext, arg string) error {
	objName, event := splitFirstWord(arg)
	if objName == "" || event == "" {
		return ErrBadSyntax("delevent <object> <event>")
	}
	target, err := resolveByRefOrName(ctx, objName)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrObjectNotFound(objName)
	}
	delete(target.CustomEvents, event)
	return nil
}

func cmdSetFlag(ctx *ActionContext, arg string) error {
	objName, flag := splitFirstWord(arg)
	if objName == "" || flag == "" {
		return ErrBadSyntax("setflag <object> <flag>")
	}
	target, err := resolveByRefOrName(ctx, objName)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrObjectNotFound(objName)
	}
	target.SetFlag(flag)
	return nil
}

func cmdResetFlag(ctx *ActionContext, arg string) error {
	objName, flag := splitFirstWord(arg)
	if objName == "" || flag == "" {
		return ErrBadSyntax("resetflag <object> <flag>")
	}
	target, err := resolveByRefOrName(ctx, objName)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrObjectNotFound(objName)
	}
	target.ResetFlag(flag)
	return nil
}

func splitFlagSuffix(spec string) (name, flags string) {
	idx := strings.LastIndex(spec, ":")
	if idx < 0 {
		return spec, ""
	}
	return spec[:idx], spec[idx+1:]
}
