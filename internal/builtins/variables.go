package builtins

import (
	"sort"
	"strings"
)

// variableTable maps the built-in A_ variables to the tag of their value.
var variableTable = map[string]string{
	"A_AhkPath":              TagString,
	"A_AhkVersion":           TagString,
	"A_AppData":              TagString,
	"A_AppDataCommon":        TagString,
	"A_Args":                 "Array",
	"A_Clipboard":            TagString,
	"A_ComputerName":         TagString,
	"A_ComSpec":              TagString,
	"A_ControlDelay":         TagNumber,
	"A_CoordModeMouse":       TagString,
	"A_CaretX":               TagNumber,
	"A_CaretY":               TagNumber,
	"A_Cursor":               TagString,
	"A_DD":                   TagString,
	"A_DDD":                  TagString,
	"A_DDDD":                 TagString,
	"A_DefaultMouseSpeed":    TagNumber,
	"A_Desktop":              TagString,
	"A_DetectHiddenText":     TagNumber,
	"A_DetectHiddenWindows":  TagNumber,
	"A_EndChar":              TagString,
	"A_EventInfo":            TagNumber,
	"A_FileEncoding":         TagString,
	"A_Hour":                 TagString,
	"A_Index":                TagNumber,
	"A_InitialWorkingDir":    TagString,
	"A_Is64bitOS":            TagNumber,
	"A_IsAdmin":              TagNumber,
	"A_IsCompiled":           TagNumber,
	"A_IsCritical":           TagNumber,
	"A_IsPaused":             TagNumber,
	"A_IsSuspended":          TagNumber,
	"A_KeyDelay":             TagNumber,
	"A_Language":             TagString,
	"A_LastError":            TagNumber,
	"A_LineFile":             TagString,
	"A_LineNumber":           TagNumber,
	"A_LoopField":            TagString,
	"A_LoopFileExt":          TagString,
	"A_LoopFileFullPath":     TagString,
	"A_LoopFileName":         TagString,
	"A_LoopFilePath":         TagString,
	"A_LoopFileSize":         TagNumber,
	"A_LoopReadLine":         TagString,
	"A_LoopRegName":          TagString,
	"A_MDay":                 TagString,
	"A_Min":                  TagString,
	"A_MM":                   TagString,
	"A_MMM":                  TagString,
	"A_MMMM":                 TagString,
	"A_Mon":                  TagString,
	"A_MouseDelay":           TagNumber,
	"A_MSec":                 TagString,
	"A_MyDocuments":          TagString,
	"A_Now":                  TagString,
	"A_NowUTC":               TagString,
	"A_OSVersion":            TagString,
	"A_PriorHotkey":          TagString,
	"A_PriorKey":             TagString,
	"A_ProgramFiles":         TagString,
	"A_Programs":             TagString,
	"A_PtrSize":              TagNumber,
	"A_ScreenDPI":            TagNumber,
	"A_ScreenHeight":         TagNumber,
	"A_ScreenWidth":          TagNumber,
	"A_ScriptDir":            TagString,
	"A_ScriptFullPath":       TagString,
	"A_ScriptHwnd":           TagNumber,
	"A_ScriptName":           TagString,
	"A_Sec":                  TagString,
	"A_SendLevel":            TagNumber,
	"A_SendMode":             TagString,
	"A_Space":                TagString,
	"A_StartMenu":            TagString,
	"A_Startup":              TagString,
	"A_StoreCapsLockMode":    TagNumber,
	"A_Tab":                  TagString,
	"A_Temp":                 TagString,
	"A_ThisFunc":             TagString,
	"A_ThisHotkey":           TagString,
	"A_TickCount":            TagNumber,
	"A_TimeIdle":             TagNumber,
	"A_TimeIdlePhysical":     TagNumber,
	"A_TimeSincePriorHotkey": TagNumber,
	"A_TimeSinceThisHotkey":  TagNumber,
	"A_TitleMatchMode":       TagString,
	"A_TitleMatchModeSpeed":  TagString,
	"A_TrayMenu":             "Menu",
	"A_UserName":             TagString,
	"A_WDay":                 TagString,
	"A_WinDelay":             TagNumber,
	"A_WinDir":               TagString,
	"A_WorkingDir":           TagString,
	"A_YDay":                 TagString,
	"A_Year":                 TagString,
	"A_YWeek":                TagString,
	"A_YYYY":                 TagString,
}

var variables = func() map[string]string {
	m := make(map[string]string, len(variableTable))
	for name := range variableTable {
		m[strings.ToUpper(name)] = name
	}

	return m
}()

// LookupVariable returns the canonical spelling and value tag of a built-in
// variable.
func LookupVariable(name string) (canonical, tag string, ok bool) {
	canonical, ok = variables[strings.ToUpper(name)]
	if !ok {
		return "", "", false
	}

	return canonical, variableTable[canonical], true
}

// IsVariable reports whether name is a built-in variable.
func IsVariable(name string) bool {
	_, _, ok := LookupVariable(name)
	return ok
}

// VariableNames returns the built-in variable names in sorted order.
func VariableNames() []string {
	names := make([]string, 0, len(variableTable))
	for name := range variableTable {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Directives lists the directive names offered after '#'.
var Directives = []string{
	"ClipboardTimeout", "DllLoad", "ErrorStdOut", "HotIf", "HotIfTimeout",
	"Hotstring", "Include", "IncludeAgain", "InputLevel", "MaxThreads",
	"MaxThreadsBuffer", "MaxThreadsPerHotkey", "NoTrayIcon", "Requires",
	"SingleInstance", "SuspendExempt", "UseHook", "Warn", "WinActivateForce",
}

// IsBuiltin reports whether name is any built-in function, class or variable.
func IsBuiltin(name string) bool {
	return IsFunction(name) || IsClass(name) || IsVariable(name)
}
