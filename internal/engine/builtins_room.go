package engine

// RoomBuiltins returns the commands contributed by the room a player is
// standing in (§4.4 step 4): say, emit, take, drop — grounded in
// original_source's MRRoom.cmd_say/cmd_emit/cmd_take/cmd_drop, which define
// these at the room's class rather than the player's.
func RoomBuiltins() []Action {
	cmds := []*BuiltinCommand{
		{Name: "say", Fn: cmdSay},
		{Name: "emit", Fn: cmdEmit},
		{Name: "take", Fn: cmdTake},
		{Name: "drop", Fn: cmdDrop},
	}
	out := make([]Action, len(cmds))
	for i, c := range cmds {
		out[i] = c
	}
	return out
}
