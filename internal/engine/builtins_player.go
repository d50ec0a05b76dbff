package engine

import (
	"fmt"

	"embermoo/internal/scripting"
)

// PlayerBuiltins returns the commands a player's character itself owns,
// independent of where it is standing (§3, SUPPLEMENTED FEATURES /
// original_source MRPlayer): go, look, describe. say/emit/take/drop belong
// to the room instead (RoomBuiltins, §4.4 step 4) — original_source defines
// them on MRRoom, not MRPlayer, since they describe acting on the room the
// player currently occupies. `help` and `play` are session-level (§4.9) and
// live in the session package instead.
func PlayerBuiltins() []*BuiltinCommand {
	return []*BuiltinCommand{
		{Name: "go", Fn: cmdGo},
		{Name: "look", Fn: cmdLook},
		{Name: "describe", Fn: cmdDescribe},
	}
}

func cmdSay(ctx *ActionContext, arg string) error {
	if arg == "" {
		return ErrBadSyntax("say <text>")
	}
	text := fmt.Sprintf("%s says, \"%s\"", ctx.Caller.Name, arg)
	broadcastLocation(ctx, ctx.Caller, text, nil)
	ctx.Send(fmt.Sprintf("You say, \"%s\"", arg))
	return nil
}

func cmdEmit(ctx *ActionContext, arg string) error {
	if arg == "" {
		return ErrBadSyntax("emit <text>")
	}
	broadcastLocation(ctx, ctx.Caller, scripting.Unescape(arg), nil)
	return nil
}

func cmdGo(ctx *ActionContext, arg string) error {
	dest := trimLeadingWord(arg, "to")
	if dest == "" {
		return ErrBadSyntax("go [to] <place>")
	}
	if !ctx.Caller.HasLocation {
		return ErrNotHere()
	}
	here := ctx.DB.Get(ctx.Caller.Location)
	if here == nil || here.Kind != KindRoom {
		return ErrNotHere()
	}
	names := make([]string, 0, len(here.Exits))
	for name := range here.Exits {
		names = append(names, name)
	}
	matches := MatchList(dest, names)
	if len(matches) == 0 {
		return ErrObjectNotFound(dest)
	}
	if len(matches) > 1 {
		return ErrAmbiguous(matches)
	}
	target := ctx.DB.Get(here.Exits[matches[0]])
	if target == nil {
		return ErrObjectNotFound(dest)
	}
	moveObject(ctx.DB, ctx.Caller, target)
	ctx.Send(describeRoom(ctx.DB, target))
	broadcastLocation(ctx, ctx.Caller, fmt.Sprintf("%s arrives.", ctx.Caller.Name), ctx.Caller)
	return nil
}

func cmdLook(ctx *ActionContext, arg string) error {
	if arg == "" {
		if !ctx.Caller.HasLocation {
			return ErrNotHere()
		}
		here := ctx.DB.Get(ctx.Caller.Location)
		if here == nil {
			return ErrNotHere()
		}
		ctx.Send(describeRoom(ctx.DB, here))
		return nil
	}
	target := trimLeadingWord(arg, "at")
	obj, err := resolveVisible(ctx, target)
	if err != nil {
		return err
	}
	if obj == nil {
		return ErrObjectNotFound(target)
	}
	ctx.Send(fmt.Sprintf("%s: %s", obj.Name, obj.Description))
	return nil
}

func cmdDescribe(ctx *ActionContext, arg string) error {
	name, text := splitFirstWord(arg)
	if name == "" || text == "" {
		return ErrBadSyntax("describe <object> <text>")
	}
	obj, err := resolveVisible(ctx, name)
	if err != nil {
		return err
	}
	if obj == nil {
		return ErrObjectNotFound(name)
	}
	obj.Description = scripting.Unescape(text)
	return nil
}

func cmdTake(ctx *ActionContext, arg string) error {
	if arg == "" {
		return ErrBadSyntax("take <thing>")
	}
	if MatchName(arg, "self") || MatchName(arg, ctx.Caller.Name) {
		ctx.Send("You try to fold yourself into your pocket, to no avail.")
		return nil
	}
	if !ctx.Caller.HasLocation {
		return ErrNotHere()
	}
	here := ctx.DB.Get(ctx.Caller.Location)
	if here == nil {
		return ErrNotHere()
	}
	target, err := findInContents(ctx.DB, here, arg)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrObjectNotFound(arg)
	}
	if target.Flags["big"] {
		return ErrTooBig()
	}
	moveObject(ctx.DB, target, ctx.Caller)
	broadcastLocation(ctx, ctx.Caller, fmt.Sprintf("%s puts %s in their pocket.", ctx.Caller.Name, target.Name), nil)
	return nil
}

func cmdDrop(ctx *ActionContext, arg string) error {
	if arg == "" {
		return ErrBadSyntax("drop <thing>")
	}
	target, err := findInContents(ctx.DB, ctx.Caller, arg)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrObjectNotFound(arg)
	}
	if !ctx.Caller.HasLocation {
		return ErrNotHere()
	}
	here := ctx.DB.Get(ctx.Caller.Location)
	if here == nil {
		return ErrNotHere()
	}
	moveObject(ctx.DB, target, here)
	broadcastLocation(ctx, ctx.Caller, fmt.Sprintf("%s drops %s.", ctx.Caller.Name, target.Name), nil)
	return nil
}

// describeRoom renders the two-line room description used by Scenario A:
// the name/description header, a blank line, then a contents summary.
func describeRoom(db *Database, room *Object) string {
	contents := otherContents(db, room, 0)
	var summary string
	if len(contents) == 0 {
		summary = "It is empty"
	} else {
		summary = "You see: " + joinNames(contents)
	}
	return fmt.Sprintf("%s: %s\n\n%s", room.Name, room.Description, summary)
}

func otherContents(db *Database, room *Object, exclude ID) []*Object {
	var out []*Object
	for _, id := range room.Contents {
		if id == exclude {
			continue
		}
		if obj := db.Get(id); obj != nil {
			out = append(out, obj)
		}
	}
	return out
}

func joinNames(objs []*Object) string {
	out := ""
	for i, o := range objs {
		if i > 0 {
			out += ", "
		}
		out += o.Name
	}
	return out
}

func trimLeadingWord(s, word string) string {
	first, rest := splitFirstWord(s)
	if first == word {
		return rest
	}
	return s
}
