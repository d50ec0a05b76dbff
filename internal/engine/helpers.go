package engine

// moveObject relocates obj into dest's contents, maintaining invariant 2
// (bidirectional location/contents consistency): it is first removed from
// its previous location's contents (if any and if the previous location is
// itself a tracked object), then appended to dest.Contents, and its
// Location/HasLocation fields are updated.
func moveObject(db *Database, obj, dest *Object) {
	if obj.HasLocation {
		if prev := db.Get(obj.Location); prev != nil {
			prev.Contents = removeID(prev.Contents, obj.ID)
		}
	}
	dest.Contents = append(dest.Contents, obj.ID)
	obj.Location = dest.ID
	obj.HasLocation = true
}

func removeID(ids []ID, target ID) []ID {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

// findInContents resolves name against the names of container's contents
// using the full Find triple-outcome rule (§4.5): a single match returns the
// object, no match returns (nil, nil), and more than one match returns
// (nil, ErrAmbiguous(candidates)) so the caller can surface §8's "Which
// one?" listing instead of mistaking ambiguity for a miss.
func findInContents(db *Database, container *Object, name string) (*Object, error) {
	var names []string
	var items []interface{}
	for _, id := range container.Contents {
		if obj := db.Get(id); obj != nil {
			names = append(names, obj.Name)
			items = append(items, obj)
		}
	}
	result, item, candidates := Find(name, names, items, nil)
	switch result {
	case FindOne:
		return item.(*Object), nil
	case FindMultiple:
		return nil, ErrAmbiguous(candidates)
	default:
		return nil, nil
	}
}

// resolveVisible resolves name against a #id reference, "me" or the caller's
// name, "here" or the room's name, the caller's location's contents, and the
// caller's own contents, in that order — the common target-resolution rule
// used by look, describe and resolveByRefOrName (take and drop search
// contents with findInContents directly). An
// ambiguous match anywhere along the chain short-circuits with ErrAmbiguous
// rather than falling through to the next source.
func resolveVisible(ctx *ActionContext, name string) (*Object, error) {
	if obj := ctx.DB.Dbref(name); obj != nil {
		return obj, nil
	}
	if MatchName(name, "me") || MatchName(name, ctx.Caller.Name) {
		return ctx.Caller, nil
	}
	if ctx.Caller.HasLocation {
		if here := ctx.DB.Get(ctx.Caller.Location); here != nil {
			if MatchName(name, "here") || MatchName(name, here.Name) {
				return here, nil
			}
			if obj, err := findInContents(ctx.DB, here, name); obj != nil || err != nil {
				return obj, err
			}
		}
	}
	return findInContents(ctx.DB, ctx.Caller, name)
}

// broadcastLocation sends text to every online player located with actor
// (i.e. sharing actor's current location), excluding exclude if non-nil.
func broadcastLocation(ctx *ActionContext, actor *Object, text string, exclude *Object) {
	if !actor.HasLocation {
		return
	}
	room := ctx.DB.Get(actor.Location)
	if room == nil {
		return
	}
	for _, id := range room.Contents {
		occupant := ctx.DB.Get(id)
		if occupant == nil || occupant.Kind != KindPlayer || !occupant.Online {
			continue
		}
		if exclude != nil && occupant.ID == exclude.ID {
			continue
		}
		if send, ok := ctx.Senders.Get(occupant.ID); ok {
			send(text)
		}
	}
}
