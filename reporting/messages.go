package reporting

// Comment pools, picked at random when a summary is built.
var (
	sarcasticComments = []string{
		"Wow, no tests were run! What a productive day!",
		"No tests to run, guess we're all just too good at writing code.",
		"Congratulations, you've achieved the ultimate state of testing: doing nothing.",
		"Oh look, no tests were executed. It's like a vacation for your code.",
		"Zero tests run. Clearly, the code is perfect and needs no testing.",
		"The test suite is on strike. Maybe next time.",
		"Testing? Nah, we trust the code. No tests run.",
		"A test run without tests. Bold strategy.",
	}

	humorousComments = []string{
		"Well, that was an epic failure! Better luck next time!",
		"Are you sure you're not a magician? Because you just made all the tests disappear!",
		"Some tests failed. Time to put on your detective hat.",
		"Failures detected. Blame it on the cosmic rays.",
		"The tests lost this round. Rematch after a coffee?",
		"Not every test can be a winner. Today proved it.",
		"Red is a bold color choice for a test report.",
		"Failure is just success that hasn't compiled yet.",
	}

	greatNewsComments = []string{
		"Great news! All tests passed. You're a testing genius!",
		"Success! Everything works as expected. Go celebrate!",
		"You've got a perfect score! Time to take a victory lap!",
		"All tests passed with flying colors. Well done!",
		"Green across the board. Ship it!",
		"Flawless run. The code gods are smiling.",
		"Every check held. That is how it's done.",
		"No failures, no timeouts, no drama.",
	}

	timeoutComments = []string{
		"Some tests timed out. Please check the test cases.",
		"Tests are taking too long. Consider optimizing the test cases.",
		"Timeouts detected. Are the tests waiting on something?",
		"A few tests ran out of patience before they ran out of work.",
		"Timeouts happened. Slow code or slow machine?",
		"Some cases crossed the time limit. Profile before you panic.",
	}

	mixedComment = "The test results are mixed. Consider analyzing individual test cases to uncover underlying issues."
)

// Suggestion pools, picked at random when a summary is built.
var (
	emptySuiteSuggestions = []string{
		"Check if tests are properly configured or if there are any new tests to add.",
		"Register some cases before running the suite.",
		"Empty cases have no body. Give them something to check.",
		"Remove placeholder cases once real ones exist.",
		"An empty suite proves nothing. Add coverage for the main paths first.",
	}

	failureSuggestions = []string{
		"Look into the failed test cases and their failure messages.",
		"Investigate the failed test cases and their associated logs.",
		"Review the failed cases starting from the first reported location.",
		"Run the failing cases alone with repeat enabled to rule out flakiness.",
		"Compare the failing assertion against recent changes to the code under test.",
		"Add more context to assertion messages to make failures easier to diagnose.",
	}

	successSuggestions = []string{
		"Great job! Keep adding more tests to cover edge cases.",
		"Fantastic! Consider adding performance and stress tests.",
		"Success! Now, let's focus on optimizing test execution time.",
		"Well done! Consider running tests in shuffled order to catch hidden dependencies.",
		"All green. Tag the slow cases so they can be filtered later.",
		"Try a few repeated runs to make sure the results are stable.",
	}

	timeoutSuggestions = []string{
		"Check resource utilization during test execution.",
		"Review the test cases for potential bottlenecks.",
		"Consider raising the timeout only after profiling the slow cases.",
		"Split long running cases into smaller focused ones.",
		"Look for blocking calls or busy waits inside the timed out cases.",
	}

	skippedSuggestion = "Review skipped tests for prerequisites or intentional exclusions. Ensure tests are not being skipped due to unmet conditions."
)

// Execution time insights.
const (
	insightVeryLong = "The test execution time was exceptionally long. Look for performance bottlenecks or heavy test cases."
	insightLong     = "The test execution time was unusually long. Consider optimizing the test cases or the code under test."
	insightShort    = "The test execution time was abnormally short. Verify that all tests are being executed as expected."
)
