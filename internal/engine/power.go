package engine

// Power is a capability bundle: a fixed set of built-in commands and a fixed
// set of flags granted to its bearer (§3). Powers are value objects, never
// persisted as their own database entity — only the bearer's list of power
// names is persisted, and that list is resolved back to Power values at
// lookup time via PowerByName.
type Power struct {
	Name     string
	Commands []*BuiltinCommand
	Flags    map[string]bool
}

// union builds a composite power out of others, flattening their command
// lists and flag sets — the Go analogue of the original's subtyping
// (`God = Engineer ∪ Maker ∪ SuperDigger`, §3 and SUPPLEMENTED FEATURES).
func union(name string, parts ...Power) Power {
	p := Power{Name: name, Flags: map[string]bool{}}
	for _, part := range parts {
		p.Commands = append(p.Commands, part.Commands...)
		for f := range part.Flags {
			p.Flags[f] = true
		}
	}
	return p
}

var (
	// digger grants `dig` (§6 player-facing/Engineer-adjacent built-ins).
	digger = Power{Name: "Digger", Commands: []*BuiltinCommand{
		{Name: "dig", Fn: cmdDig},
	}}

	// superDigger extends Digger with link/unlink/teleport (SUPPLEMENTED
	// FEATURES: SuperDigger(Digger)).
	superDigger = union("SuperDigger", digger, Power{Commands: []*BuiltinCommand{
		{Name: "link", Fn: cmdLink},
		{Name: "unlink", Fn: cmdUnlink},
		{Name: "teleport", Fn: cmdTeleport},
	}})

	// engineer grants the scripting-authoring surface (§6).
	engineer = Power{Name: "Engineer", Commands: []*BuiltinCommand{
		{Name: "eval", Fn: cmdEval},
		{Name: "exec", Fn: cmdExec},
		{Name: "examine", Fn: cmdExamine},
		{Name: "setattr", Fn: cmdSetAttr},
		{Name: "delattr", Fn: cmdDelAttr},
		{Name: "cmd", Fn: cmdCmd},
		{Name: "match", Fn: cmdMatch},
		{Name: "delcmd", Fn: cmdDelCmd},
		{Name: "setevent", Fn: cmdSetEvent},
		{Name: "delevent", Fn: cmdDelEvent},
		{Name: "setflag", Fn: cmdSetFlag},
		{Name: "resetflag", Fn: cmdResetFlag},
	}}

	// maker grants make/destroy (§6).
	maker = Power{Name: "Maker", Commands: []*BuiltinCommand{
		{Name: "make", Fn: cmdMake},
		{Name: "destroy", Fn: cmdDestroy},
		{Name: "demolish", Fn: cmdDestroy},
		{Name: "clone", Fn: cmdClone},
	}}

	// god is the union of Engineer, Maker and SuperDigger, exactly as
	// original_source composes it (SUPPLEMENTED FEATURES).
	god = union("God", engineer, maker, superDigger)
)

// powerRegistry is the closed set of powers a player or thing may bear,
// looked up by the name stored in Object.Powers.
var powerRegistry = map[string]Power{
	"Digger":      digger,
	"SuperDigger": superDigger,
	"Engineer":    engineer,
	"Maker":       maker,
	"God":         god,
}

// PowerByName resolves a persisted power name, reporting false if unknown
// (a power removed from a later build of the registry should not panic the
// object that still lists it).
func PowerByName(name string) (Power, bool) {
	p, ok := powerRegistry[name]
	return p, ok
}

// FlattenPowers returns obj's effective power set: its own and those of
// every ancestor in its parent chain, plus (for players) the powers of
// things currently in its pockets (§4.2).
func FlattenPowers(db *Database, obj *Object) []Power {
	var out []Power
	const maxDepth = 64
	cur := obj
	for depth := 0; depth < maxDepth && cur != nil; depth++ {
		for _, name := range cur.Powers {
			if p, ok := PowerByName(name); ok {
				out = append(out, p)
			}
		}
		if !cur.HasParent {
			break
		}
		cur = db.Get(cur.Parent)
	}
	if obj.Kind == KindPlayer {
		for _, id := range obj.Contents {
			thing := db.Get(id)
			if thing == nil {
				continue
			}
			for _, name := range thing.Powers {
				if p, ok := PowerByName(name); ok {
					out = append(out, p)
				}
			}
		}
	}
	return out
}
