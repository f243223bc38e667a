// Package builtins holds the tables of AutoHotkey v2 built-in functions,
// classes and variables used for resolution, inference, hover and completion.
package builtins

import (
	"sort"
	"strings"
)

// Type tags for primitive values. Class names are used verbatim for objects.
const (
	TagAny    = "#any"
	TagNumber = "#number"
	TagString = "#string"
)

// Param describes one parameter of a built-in.
type Param struct {
	Name     string
	Optional bool
	ByRef    bool
	Variadic bool
}

// Signature describes a built-in function or method.
type Signature struct {
	Name          string
	Params        []Param
	Returns       string // type tag, class name, or "" when nothing is returned
	Documentation string
}

// MinParams returns the number of required parameters.
func (s *Signature) MinParams() int {
	n := 0
	for _, p := range s.Params {
		if !p.Optional && !p.Variadic {
			n++
		}
	}

	return n
}

// MaxParams returns the parameter limit, or -1 for variadic signatures.
func (s *Signature) MaxParams() int {
	for _, p := range s.Params {
		if p.Variadic {
			return -1
		}
	}

	return len(s.Params)
}

// Label renders the signature the way it is written in the documentation,
// e.g. "StrLen(String) => #number".
func (s *Signature) Label() string {
	var b strings.Builder

	b.WriteString(s.Name)
	b.WriteByte('(')

	for i, p := range s.Params {
		if i > 0 {
			b.WriteString(", ")
		}

		b.WriteString(p.Label())
	}

	b.WriteByte(')')

	if s.Returns != "" {
		b.WriteString(" => ")
		b.WriteString(s.Returns)
	}

	return b.String()
}

// Label renders a parameter with its &, ? and * markers.
func (p Param) Label() string {
	s := p.Name
	if p.ByRef {
		s = "&" + s
	}

	switch {
	case p.Variadic:
		s += "*"
	case p.Optional:
		s += "?"
	}

	return s
}

// parseSignature reads the compact "Name(&a, b?, c*) => tag" notation.
func parseSignature(text, doc string) *Signature {
	sig := &Signature{Documentation: doc}

	if i := strings.Index(text, " => "); i >= 0 {
		sig.Returns = strings.TrimSpace(text[i+4:])
		text = text[:i]
	}

	open := strings.IndexByte(text, '(')
	if open < 0 {
		sig.Name = strings.TrimSpace(text)
		return sig
	}

	sig.Name = text[:open]
	inner := strings.TrimSuffix(text[open+1:], ")")

	for _, raw := range strings.Split(inner, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		var p Param

		if strings.HasPrefix(raw, "&") {
			p.ByRef = true
			raw = raw[1:]
		}

		switch {
		case strings.HasSuffix(raw, "*"):
			p.Variadic = true
			raw = strings.TrimSuffix(raw, "*")
		case strings.HasSuffix(raw, "?"):
			p.Optional = true
			raw = strings.TrimSuffix(raw, "?")
		}

		p.Name = raw
		sig.Params = append(sig.Params, p)
	}

	return sig
}

var functionTable = []struct{ sig, doc string }{
	{"Abs(Number) => #number", "Returns the absolute value of Number."},
	{"ACos(Number) => #number", ""},
	{"ASin(Number) => #number", ""},
	{"ATan(Number) => #number", ""},
	{"BlockInput(Option)", ""},
	{"CallbackCreate(Function, Options?, ParamCount?) => #number", ""},
	{"CallbackFree(Address)", ""},
	{"CaretGetPos(&OutputVarX?, &OutputVarY?) => #number", ""},
	{"Ceil(Number) => #number", "Returns Number rounded up to the nearest integer."},
	{"Chr(CharCode) => #string", "Returns the string corresponding to the character code."},
	{"Click(Options*)", "Clicks a mouse button at the specified coordinates."},
	{"ClipWait(Timeout?, WaitFor?) => #number", ""},
	{"ComCall(Index, ComObj, Params*) => #any", ""},
	{"ComObjActive(CLSID) => ComObject", "Retrieves a registered COM object."},
	{"ComObjConnect(ComObj, Prefix?)", ""},
	{"ComObjFlags(ComObj, NewFlags?, Mask?) => #number", ""},
	{"ComObjFromPtr(DispPtr) => ComObject", ""},
	{"ComObjGet(Name) => ComObject", ""},
	{"ComObjQuery(ComObj, SID?, IID?) => ComValue", ""},
	{"ComObjType(ComObj, InfoType?) => #any", ""},
	{"ComObjValue(ComObj) => #number", ""},
	{"ControlClick(ControlOrPos?, WinTitle?, WinText?, WhichButton?, ClickCount?, Options?, ExcludeTitle?, ExcludeText?)", ""},
	{"ControlGetText(Control, WinTitle?, WinText?, ExcludeTitle?, ExcludeText?) => #string", ""},
	{"ControlSend(Keys, Control?, WinTitle?, WinText?, ExcludeTitle?, ExcludeText?)", ""},
	{"ControlSetText(NewText, Control, WinTitle?, WinText?, ExcludeTitle?, ExcludeText?)", ""},
	{"CoordMode(TargetType, RelativeTo?) => #string", ""},
	{"Cos(Number) => #number", ""},
	{"Critical(OnOffNumeric?) => #number", ""},
	{"DateAdd(DateTime, Time, TimeUnits) => #string", ""},
	{"DateDiff(DateTime1, DateTime2, TimeUnits) => #number", ""},
	{"DetectHiddenWindows(Mode) => #number", ""},
	{"DirCopy(Source, Dest, Overwrite?)", ""},
	{"DirCreate(DirName)", ""},
	{"DirDelete(DirName, Recurse?)", ""},
	{"DirExist(FilePattern) => #string", "Checks for the existence of a folder and returns its attributes."},
	{"DirMove(Source, Dest, OverwriteOrRename?)", ""},
	{"DirSelect(StartingFolder?, Options?, Prompt?) => #string", ""},
	{"DllCall(DllFile_Function, Type_Args*) => #any", "Calls a function inside a DLL."},
	{"Download(URL, Filename)", ""},
	{"DriveGetFreeSpace(Path) => #number", ""},
	{"Edit()", ""},
	{"EnvGet(EnvVar) => #string", ""},
	{"EnvSet(EnvVar, Value?)", ""},
	{"Exit(ExitCode?)", "Exits the current thread."},
	{"ExitApp(ExitCode?)", "Terminates the script."},
	{"Exp(N) => #number", ""},
	{"FileAppend(Text, Filename?, Options?)", "Writes text or binary data to the end of a file."},
	{"FileCopy(SourcePattern, DestPattern, Overwrite?)", ""},
	{"FileCreateShortcut(Target, LinkFile, WorkingDir?, Args?, Description?, IconFile?, ShortcutKey?, IconNumber?, RunState?)", ""},
	{"FileDelete(FilePattern)", ""},
	{"FileEncoding(Encoding?) => #string", ""},
	{"FileExist(FilePattern) => #string", "Checks for the existence of a file or folder and returns its attributes."},
	{"FileGetAttrib(Filename?) => #string", ""},
	{"FileGetSize(Filename?, Units?) => #number", ""},
	{"FileGetTime(Filename?, WhichTime?) => #string", ""},
	{"FileMove(SourcePattern, DestPattern, Overwrite?)", ""},
	{"FileOpen(Filename, Flags, Encoding?) => File", "Opens a file to read specific content from it and/or to write new content into it."},
	{"FileRead(Filename, Options?) => #string", "Retrieves the contents of a file."},
	{"FileRecycle(FilePattern)", ""},
	{"FileSelect(Options?, RootDir_Filename?, Title?, Filter?) => #any", ""},
	{"Floor(Number) => #number", "Returns Number rounded down to the nearest integer."},
	{"Format(FormatStr, Values*) => #string", "Formats a variable number of input values according to a format string."},
	{"FormatTime(YYYYMMDDHH24MISS?, Format?) => #string", ""},
	{"GetKeyName(KeyName) => #string", ""},
	{"GetKeyState(KeyName, Mode?) => #number", "Checks if a keyboard key or mouse/controller button is down or up."},
	{"GroupActivate(GroupName, Mode?) => #number", ""},
	{"GroupAdd(GroupName, WinTitle?, WinText?, ExcludeTitle?, ExcludeText?)", ""},
	{"HasBase(Value, BaseObj) => #number", ""},
	{"HasMethod(Value, Name?, ParamCount?) => #number", ""},
	{"HasProp(Value, Name) => #number", ""},
	{"Hotkey(KeyName, Callback?, Options?)", "Creates, modifies, enables, or disables a hotkey while the script is running."},
	{"Hotstring(String, Replacement?, OnOffToggle?) => #any", ""},
	{"IL_Create(InitialCount?, GrowCount?, LargeIcons?) => #number", ""},
	{"ImageSearch(&OutputVarX, &OutputVarY, X1, Y1, X2, Y2, ImageFile) => #number", ""},
	{"IniDelete(Filename, Section, Key?)", ""},
	{"IniRead(Filename, Section?, Key?, Default?) => #string", "Reads a value, section or list of section names from a standard format .ini file."},
	{"IniWrite(Value, Filename, Section, Key?)", ""},
	{"InputBox(Prompt?, Title?, Options?, Default?) => Object", ""},
	{"InStr(Haystack, Needle, CaseSense?, StartingPos?, Occurrence?) => #number", "Searches for a given occurrence of a string, from the left or the right."},
	{"IsAlnum(Value, Mode?) => #number", ""},
	{"IsAlpha(Value, Mode?) => #number", ""},
	{"IsDigit(Value) => #number", ""},
	{"IsFloat(Value) => #number", ""},
	{"IsInteger(Value) => #number", ""},
	{"IsLabel(LabelName) => #number", ""},
	{"IsNumber(Value) => #number", ""},
	{"IsObject(Value) => #number", "Returns a non-zero number if the specified value is an object."},
	{"IsSet(Var) => #number", "Returns a non-zero number if the specified variable has been assigned a value."},
	{"IsSetRef(Ref) => #number", ""},
	{"KeyHistory(MaxEvents?)", ""},
	{"KeyWait(KeyName, Options?) => #number", ""},
	{"ListLines(Mode?) => #number", ""},
	{"ListVars()", ""},
	{"Ln(Number) => #number", ""},
	{"Log(Number) => #number", ""},
	{"LTrim(String, OmitChars?) => #string", ""},
	{"Max(Numbers*) => #number", "Returns the highest value of one or more numbers."},
	{"Min(Numbers*) => #number", "Returns the lowest value of one or more numbers."},
	{"Mod(Dividend, Divisor) => #number", "Returns the remainder when Dividend is divided by Divisor."},
	{"MonitorGet(N?, &Left?, &Top?, &Right?, &Bottom?) => #number", ""},
	{"MonitorGetCount() => #number", ""},
	{"MouseClick(WhichButton?, X?, Y?, ClickCount?, Speed?, DownOrUp?, Relative?)", ""},
	{"MouseGetPos(&OutputVarX?, &OutputVarY?, &OutputVarWin?, &OutputVarControl?, Flag?)", "Retrieves the current position of the mouse cursor."},
	{"MouseMove(X, Y, Speed?, Relative?)", ""},
	{"MsgBox(Text?, Title?, Options?) => #string", "Displays the specified text in a small window containing one or more buttons."},
	{"NumGet(Source, Offset?, Type) => #number", ""},
	{"NumPut(Type, Number, Type_Number*) => #number", ""},
	{"ObjAddRef(Ptr) => #number", ""},
	{"ObjBindMethod(Obj, Method?, Params*) => BoundFunc", ""},
	{"ObjGetBase(Value) => Object", ""},
	{"ObjHasOwnProp(Obj, Name) => #number", ""},
	{"ObjOwnPropCount(Obj) => #number", ""},
	{"ObjOwnProps(Obj) => Enumerator", ""},
	{"ObjRelease(Ptr) => #number", ""},
	{"ObjSetBase(Obj, BaseObj)", ""},
	{"OnClipboardChange(Callback, AddRemove?)", ""},
	{"OnError(Callback, AddRemove?)", ""},
	{"OnExit(Callback, AddRemove?)", ""},
	{"OnMessage(MsgNumber, Callback?, MaxThreads?)", ""},
	{"Ord(String) => #number", "Returns the ordinal value (numeric character code) of the first character in the specified string."},
	{"OutputDebug(Text)", ""},
	{"Pause(NewState?)", ""},
	{"PixelGetColor(X, Y, Mode?) => #string", ""},
	{"PixelSearch(&OutputVarX, &OutputVarY, X1, Y1, X2, Y2, ColorID, Variation?) => #number", ""},
	{"PostMessage(Msg, wParam?, lParam?, Control?, WinTitle?, WinText?, ExcludeTitle?, ExcludeText?)", ""},
	{"ProcessClose(PIDOrName) => #number", ""},
	{"ProcessExist(PIDOrName?) => #number", ""},
	{"ProcessWait(PIDOrName, Timeout?) => #number", ""},
	{"Random(A?, B?) => #number", "Generates a pseudo-random number."},
	{"RegDelete(KeyName?, ValueName?)", ""},
	{"RegExMatch(Haystack, NeedleRegEx, &OutputVar?, StartingPos?) => #number", "Determines whether a string contains a pattern (regular expression)."},
	{"RegExReplace(Haystack, NeedleRegEx, Replacement?, &OutputVarCount?, Limit?, StartingPos?) => #string", "Replaces occurrences of a pattern (regular expression) inside a string."},
	{"RegRead(KeyName?, ValueName?, Default?) => #any", ""},
	{"RegWrite(Value, ValueType?, KeyName?, ValueName?)", ""},
	{"Reload()", "Replaces the currently running instance of the script with a new one."},
	{"Round(Number, N?) => #number", "Returns Number rounded to N decimal places."},
	{"RTrim(String, OmitChars?) => #string", ""},
	{"Run(Target, WorkingDir?, Options?, &OutputVarPID?)", "Runs an external program."},
	{"RunWait(Target, WorkingDir?, Options?, &OutputVarPID?) => #number", ""},
	{"Send(Keys)", "Sends simulated keystrokes and mouse clicks to the active window."},
	{"SendInput(Keys)", ""},
	{"SendMessage(Msg, wParam?, lParam?, Control?, WinTitle?, WinText?, ExcludeTitle?, ExcludeText?, Timeout?) => #number", ""},
	{"SendText(Keys)", ""},
	{"SetTimer(Function?, Period?, Priority?)", "Causes a function to be called automatically and repeatedly at a specified time interval."},
	{"SetWorkingDir(DirName)", ""},
	{"Sin(Number) => #number", ""},
	{"Sleep(Delay)", "Waits the specified amount of time before continuing."},
	{"Sort(String, Options?, Callback?) => #string", ""},
	{"SoundBeep(Frequency?, Duration?)", ""},
	{"SoundPlay(Filename, Wait?)", ""},
	{"SplitPath(Path, &OutFileName?, &OutDir?, &OutExtension?, &OutNameNoExt?, &OutDrive?)", "Separates a file name or URL into its name, directory, extension, and drive."},
	{"Sqrt(Number) => #number", ""},
	{"StatusBarGetText(Part?, WinTitle?, WinText?, ExcludeTitle?, ExcludeText?) => #string", ""},
	{"StrCompare(String1, String2, CaseSense?) => #number", ""},
	{"StrGet(Source, Length?, Encoding?) => #string", ""},
	{"StrLen(String) => #number", "Retrieves the count of how many characters are in a string."},
	{"StrLower(String) => #string", ""},
	{"StrPtr(Value) => #number", ""},
	{"StrPut(String, Target?, Length?, Encoding?) => #number", ""},
	{"StrReplace(Haystack, Needle, ReplaceText?, CaseSense?, &OutputVarCount?, Limit?) => #string", "Replaces the specified substring with a new string."},
	{"StrSplit(String, Delimiters?, OmitChars?, MaxParts?) => Array", "Separates a string into an array of substrings using the specified delimiters."},
	{"StrTitle(String) => #string", ""},
	{"StrUpper(String) => #string", ""},
	{"SubStr(String, StartingPos, Length?) => #string", "Retrieves one or more characters from the specified position in a string."},
	{"Suspend(NewState?)", ""},
	{"SysGet(Property) => #number", ""},
	{"Tan(Number) => #number", ""},
	{"ToolTip(Text?, X?, Y?, WhichToolTip?) => #number", "Creates an always-on-top window anywhere on the screen."},
	{"TrayTip(Text?, Title?, Options?)", ""},
	{"Trim(String, OmitChars?) => #string", "Trims characters from the beginning and end of a string."},
	{"Type(Value) => #string", "Returns the class name of a value."},
	{"VarSetStrCapacity(&TargetVar, RequestedCapacity?) => #number", ""},
	{"VerCompare(VersionA, VersionB) => #number", ""},
	{"WinActivate(WinTitle?, WinText?, ExcludeTitle?, ExcludeText?)", "Activates the specified window."},
	{"WinActive(WinTitle?, WinText?, ExcludeTitle?, ExcludeText?) => #number", ""},
	{"WinClose(WinTitle?, WinText?, SecondsToWait?, ExcludeTitle?, ExcludeText?)", ""},
	{"WinExist(WinTitle?, WinText?, ExcludeTitle?, ExcludeText?) => #number", "Checks if the specified window exists and returns the unique ID (HWND) of the first matching window."},
	{"WinGetClass(WinTitle?, WinText?, ExcludeTitle?, ExcludeText?) => #string", ""},
	{"WinGetID(WinTitle?, WinText?, ExcludeTitle?, ExcludeText?) => #number", ""},
	{"WinGetPos(&OutX?, &OutY?, &OutWidth?, &OutHeight?, WinTitle?, WinText?, ExcludeTitle?, ExcludeText?)", ""},
	{"WinGetTitle(WinTitle?, WinText?, ExcludeTitle?, ExcludeText?) => #string", ""},
	{"WinHide(WinTitle?, WinText?, ExcludeTitle?, ExcludeText?)", ""},
	{"WinKill(WinTitle?, WinText?, SecondsToWait?, ExcludeTitle?, ExcludeText?)", ""},
	{"WinMaximize(WinTitle?, WinText?, ExcludeTitle?, ExcludeText?)", ""},
	{"WinMinimize(WinTitle?, WinText?, ExcludeTitle?, ExcludeText?)", ""},
	{"WinMove(X?, Y?, Width?, Height?, WinTitle?, WinText?, ExcludeTitle?, ExcludeText?)", ""},
	{"WinRestore(WinTitle?, WinText?, ExcludeTitle?, ExcludeText?)", ""},
	{"WinSetAlwaysOnTop(NewSetting?, WinTitle?, WinText?, ExcludeTitle?, ExcludeText?)", ""},
	{"WinSetTitle(NewTitle, WinTitle?, WinText?, ExcludeTitle?, ExcludeText?)", ""},
	{"WinShow(WinTitle?, WinText?, ExcludeTitle?, ExcludeText?)", ""},
	{"WinWait(WinTitle?, WinText?, Timeout?, ExcludeTitle?, ExcludeText?) => #number", ""},
	{"WinWaitActive(WinTitle?, WinText?, Timeout?, ExcludeTitle?, ExcludeText?) => #number", ""},
	{"WinWaitClose(WinTitle?, WinText?, Timeout?, ExcludeTitle?, ExcludeText?) => #number", ""},
}

var functions = func() map[string]*Signature {
	m := make(map[string]*Signature, len(functionTable))
	for _, e := range functionTable {
		sig := parseSignature(e.sig, e.doc)
		m[strings.ToUpper(sig.Name)] = sig
	}

	return m
}()

// LookupFunction returns the signature of a built-in function. Lookup is
// case-insensitive.
func LookupFunction(name string) (*Signature, bool) {
	sig, ok := functions[strings.ToUpper(name)]
	return sig, ok
}

// IsFunction reports whether name is a built-in function.
func IsFunction(name string) bool {
	_, ok := LookupFunction(name)
	return ok
}

// FunctionNames returns the built-in function names in sorted order.
func FunctionNames() []string {
	names := make([]string, 0, len(functions))
	for _, sig := range functions {
		names = append(names, sig.Name)
	}

	sort.Strings(names)

	return names
}
