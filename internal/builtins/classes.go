package builtins

import (
	"sort"
	"strings"
)

// Member is a built-in method or property.
type Member struct {
	*Signature

	Property bool
	Static   bool
}

// Class is a built-in class with its member tables keyed by upper-cased name.
type Class struct {
	Name          string
	Extends       string
	Documentation string
	Instance      map[string]*Member
	Static        map[string]*Member
}

var classTable = []struct {
	name, extends, doc string
	members            []string
}{
	{"Any", "", "The root class of the type hierarchy.", []string{
		"GetMethod(Name?, ParamCount?) => Func",
		"HasBase(BaseObj) => #number",
		"HasMethod(Name?, ParamCount?) => #number",
		"HasProp(Name) => #number",
		"Base => Object",
	}},
	{"Object", "Any", "The base class of script objects.", []string{
		"static Call() => Object",
		"Clone() => Object",
		"DefineProp(Name, Desc) => Object",
		"DeleteProp(Name) => #any",
		"GetOwnPropDesc(Name) => Object",
		"HasOwnProp(Name) => #number",
		"OwnProps() => Enumerator",
	}},
	{"Array", "Object", "An ordered list of values.", []string{
		"static Call(Values*) => Array",
		"Length => #number",
		"Capacity => #number",
		"Default => #any",
		"Clone() => Array",
		"Delete(Index) => #any",
		"Get(Index, Default?) => #any",
		"Has(Index) => #number",
		"InsertAt(Index, Values*)",
		"Pop() => #any",
		"Push(Values*)",
		"RemoveAt(Index, Length?) => #any",
		"__Enum(NumberOfVars?) => Enumerator",
	}},
	{"Map", "Object", "Associates keys with values.", []string{
		"static Call(KeyValues*) => Map",
		"Count => #number",
		"Capacity => #number",
		"CaseSense => #string",
		"Default => #any",
		"Clear()",
		"Clone() => Map",
		"Delete(Key) => #any",
		"Get(Key, Default?) => #any",
		"Has(Key) => #number",
		"Set(KeyValues*) => Map",
		"__Enum(NumberOfVars?) => Enumerator",
	}},
	{"Func", "Object", "A callable function object.", []string{
		"Name => #string",
		"IsBuiltIn => #number",
		"IsVariadic => #number",
		"MinParams => #number",
		"MaxParams => #number",
		"Bind(Params*) => BoundFunc",
		"Call(Params*) => #any",
		"IsByRef(ParamIndex?) => #number",
		"IsOptional(ParamIndex?) => #number",
	}},
	{"BoundFunc", "Func", "", nil},
	{"Closure", "Func", "", nil},
	{"Enumerator", "Func", "", nil},
	{"Buffer", "Object", "Encapsulates a block of memory.", []string{
		"static Call(ByteCount?, FillByte?) => Buffer",
		"Ptr => #number",
		"Size => #number",
	}},
	{"ClipboardAll", "Buffer", "", []string{
		"static Call(Data?, Size?) => ClipboardAll",
	}},
	{"Class", "Object", "The class of class objects.", []string{
		"Prototype => Object",
	}},
	{"Error", "Object", "The base class for thrown errors.", []string{
		"static Call(Message?, What?, Extra?) => Error",
		"Message => #string",
		"What => #string",
		"Extra => #string",
		"File => #string",
		"Line => #number",
		"Stack => #string",
	}},
	{"MemoryError", "Error", "", nil},
	{"OSError", "Error", "", []string{"Number => #number"}},
	{"TargetError", "Error", "", nil},
	{"TimeoutError", "Error", "", nil},
	{"TypeError", "Error", "", nil},
	{"UnsetError", "Error", "", nil},
	{"MemberError", "UnsetError", "", nil},
	{"PropertyError", "MemberError", "", nil},
	{"MethodError", "MemberError", "", nil},
	{"UnsetItemError", "UnsetError", "", nil},
	{"ValueError", "Error", "", nil},
	{"IndexError", "ValueError", "", nil},
	{"ZeroDivisionError", "Error", "", nil},
	{"File", "Object", "Provides an interface for file input/output.", []string{
		"AtEOF => #number",
		"Encoding => #string",
		"Handle => #number",
		"Length => #number",
		"Pos => #number",
		"Close()",
		"RawRead(Buffer, Bytes?) => #number",
		"RawWrite(Data, Bytes?) => #number",
		"Read(Characters?) => #string",
		"ReadLine() => #string",
		"Seek(Distance, Origin?) => #number",
		"Write(String) => #number",
		"WriteLine(String?) => #number",
	}},
	{"Gui", "Object", "Provides an interface to create and manage windows.", []string{
		"static Call(Options?, Title?, EventObj?) => Gui",
		"BackColor => #string",
		"Hwnd => #number",
		"MarginX => #number",
		"MarginY => #number",
		"MenuBar => MenuBar",
		"Name => #string",
		"Title => #string",
		"Add(ControlType, Options?, Text?) => #any",
		"AddButton(Options?, Text?) => #any",
		"AddCheckbox(Options?, Text?) => #any",
		"AddDropDownList(Options?, Items?) => #any",
		"AddEdit(Options?, Text?) => #any",
		"AddListView(Options?, Titles?) => #any",
		"AddText(Options?, Text?) => #any",
		"Destroy()",
		"Flash(Blink?)",
		"GetClientPos(&X?, &Y?, &Width?, &Height?)",
		"GetPos(&X?, &Y?, &Width?, &Height?)",
		"Hide()",
		"Maximize()",
		"Minimize()",
		"Move(X?, Y?, Width?, Height?)",
		"OnEvent(EventName, Callback, AddRemove?)",
		"Opt(Options)",
		"Restore()",
		"SetFont(Options?, FontName?)",
		"Show(Options?)",
		"Submit(Hide?) => Object",
	}},
	{"Menu", "Object", "Creates and manages menus.", []string{
		"static Call() => Menu",
		"ClickCount => #number",
		"Default => #string",
		"Handle => #number",
		"Add(MenuItemName?, CallbackOrSubmenu?, Options?)",
		"Check(MenuItemName)",
		"Delete(MenuItemName?)",
		"Disable(MenuItemName)",
		"Enable(MenuItemName)",
		"Insert(ItemToInsertBefore?, NewItemName?, CallbackOrSubmenu?, Options?)",
		"Rename(MenuItemName, NewName?)",
		"SetIcon(MenuItemName, FileName, IconNumber?, IconWidth?)",
		"Show(X?, Y?)",
		"ToggleCheck(MenuItemName)",
		"Uncheck(MenuItemName)",
	}},
	{"MenuBar", "Menu", "", []string{"static Call() => MenuBar"}},
	{"InputHook", "Object", "Collects user input.", []string{
		"static Call(Options?, EndKeys?, MatchList?) => InputHook",
		"EndKey => #string",
		"EndMods => #string",
		"EndReason => #string",
		"InProgress => #number",
		"Input => #string",
		"Match => #string",
		"KeyOpt(Keys, KeyOptions)",
		"Start()",
		"Stop()",
		"Wait(MaxTime?) => #string",
	}},
	{"RegExMatchInfo", "Object", "The match object produced by RegExMatch.", []string{
		"Count => #number",
		"Mark => #string",
		"Len(N?) => #number",
		"Name(N?) => #string",
		"Pos(N?) => #number",
		"__Item => #string",
	}},
	{"Primitive", "Any", "", nil},
	{"Number", "Primitive", "", []string{"static Call(Value) => #number"}},
	{"Integer", "Number", "", []string{"static Call(Value) => #number"}},
	{"Float", "Number", "", []string{"static Call(Value) => #number"}},
	{"String", "Primitive", "", []string{"static Call(Value) => #string"}},
	{"VarRef", "Any", "", nil},
	{"ComValue", "Any", "Wraps a COM value.", []string{
		"static Call(VarType, Value, Flags?) => ComValue",
		"Ptr => #number",
	}},
	{"ComObject", "ComValue", "Creates a COM object.", []string{
		"static Call(CLSID, IID?) => ComObject",
	}},
	{"ComObjArray", "ComValue", "", []string{
		"static Call(VarType, Counts*) => ComObjArray",
		"Clone() => ComObjArray",
		"MaxIndex(N?) => #number",
		"MinIndex(N?) => #number",
	}},
}

var classes = func() map[string]*Class {
	m := make(map[string]*Class, len(classTable))

	for _, e := range classTable {
		c := &Class{
			Name:          e.name,
			Extends:       e.extends,
			Documentation: e.doc,
			Instance:      make(map[string]*Member),
			Static:        make(map[string]*Member),
		}

		for _, text := range e.members {
			mem := &Member{}
			if rest, ok := strings.CutPrefix(text, "static "); ok {
				mem.Static = true
				text = rest
			}

			mem.Signature = parseSignature(text, "")
			mem.Property = !strings.Contains(text[:strings.Index(text+" =>", " =>")], "(")

			key := strings.ToUpper(mem.Name)
			if mem.Static {
				c.Static[key] = mem
			} else {
				c.Instance[key] = mem
			}
		}

		m[strings.ToUpper(e.name)] = c
	}

	return m
}()

// LookupClass returns a built-in class. Lookup is case-insensitive.
func LookupClass(name string) (*Class, bool) {
	c, ok := classes[strings.ToUpper(name)]
	return c, ok
}

// IsClass reports whether name is a built-in class.
func IsClass(name string) bool {
	_, ok := LookupClass(name)
	return ok
}

// ClassNames returns the built-in class names in sorted order.
func ClassNames() []string {
	names := make([]string, 0, len(classes))
	for _, c := range classes {
		names = append(names, c.Name)
	}

	sort.Strings(names)

	return names
}

// Base returns the class c extends, if any.
func (c *Class) Base() (*Class, bool) {
	if c.Extends == "" {
		return nil, false
	}

	return LookupClass(c.Extends)
}

// Member finds a member on c or its bases. Static lookups fall back to the
// instance members of Class, since class objects are instances of it.
func (c *Class) Member(name string, static bool) (*Member, *Class, bool) {
	key := strings.ToUpper(name)

	for cur, ok := c, true; ok; cur, ok = cur.Base() {
		table := cur.Instance
		if static {
			table = cur.Static
		}

		if m, found := table[key]; found {
			return m, cur, true
		}
	}

	if static {
		if cls, ok := LookupClass("Class"); ok {
			return cls.Member(name, false)
		}
	}

	return nil, nil, false
}

// Members lists the members visible on c, nearest class first.
func (c *Class) Members(static bool) []*Member {
	seen := make(map[string]bool)

	var out []*Member

	for cur, ok := c, true; ok; cur, ok = cur.Base() {
		table := cur.Instance
		if static {
			table = cur.Static
		}

		keys := make([]string, 0, len(table))
		for k := range table {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				out = append(out, table[k])
			}
		}
	}

	return out
}

// Constructor returns the signature used when the class is called, and the
// value tag the call produces.
func (c *Class) Constructor() (*Signature, string) {
	if m, owner, ok := c.Member("Call", true); ok && m.Static {
		tag := m.Returns
		if owner != c && tag == owner.Name {
			tag = c.Name
		}

		return m.Signature, tag
	}

	return &Signature{Name: c.Name, Params: []Param{{Name: "Params", Variadic: true}}}, c.Name
}
