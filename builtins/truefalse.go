package builtins

// True succeeds.
func True(inv *Invocation) int {
	return 0
}

// False fails.
func False(inv *Invocation) int {
	return 1
}

func init() {
	register("true", "Return success", True)
	register("false", "Return failure", False)
}
