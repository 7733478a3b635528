package analysis

import (
	"math"
	"time"
)

const minFeedbackSeconds = 3

// GetLiveFeedback computes a feedback bundle for every active goal from the
// current accumulated state. Goals aliasing the same metric share one
// computation. Safe to call at any polling rate; it only reads accumulators
// and the tip cooldown table.
func (e *Engine) GetLiveFeedback(activeGoals []string) LiveFeedback {
	feedback := LiveFeedback{}
	elapsed := e.elapsedSeconds()

	// Too little data produces noise, not coaching.
	if elapsed < minFeedbackSeconds {
		for _, goal := range activeGoals {
			feedback[goal] = GoalFeedback{
				Percentage: 0,
				Status:     StatusAverage,
				Tips:       []Tip{{Message: "Analyzing...", Priority: PriorityNeutral}},
			}
		}
		return feedback
	}

	framesDen := e.validFrames
	if framesDen < 1 {
		framesDen = 1
	}

	metrics := map[Metric]bool{}
	for _, goal := range activeGoals {
		if m, ok := goalMetric[goal]; ok {
			metrics[m] = true
		}
	}

	for metric := range metrics {
		percentage, status, tips := e.computeMetric(metric, framesDen, elapsed)

		if percentage >= 75 {
			status = StatusGood
		} else if percentage < 40 {
			status = StatusNeedsImprovement
		}

		switch status {
		case StatusGood:
			tips = append(tips, Tip{Message: "Looking great!", Priority: PriorityPositive})
		case StatusNeedsImprovement:
			tips = append(tips, Tip{Message: "Needs focus.", Priority: PriorityNeutral})
		default:
			tips = append(tips, Tip{Message: "Steady performance.", Priority: PriorityNeutral})
		}

		bundle := GoalFeedback{
			Percentage: clampPct(percentage),
			Status:     status,
			Tips:       tips,
		}
		for _, goal := range activeGoals {
			if goalMetric[goal] == metric {
				feedback[goal] = bundle
			}
		}
	}
	return feedback
}

func (e *Engine) computeMetric(metric Metric, framesDen int, elapsed float64) (float64, FeedbackStatus, []Tip) {
	percentage := 50.0
	status := StatusAverage
	var tips []Tip
	target := thresholdFor(e.scenarioID, metric)

	switch metric {

	case MetricEyeContact:
		percentage = float64(e.eyeContactFrames) / float64(framesDen) * 100
		if percentage > 85 {
			status = StatusGood
		} else if percentage < 50 {
			status = StatusNeedsImprovement
		}
		if e.shouldTriggerTip(e.lookingAwayFrames > tipTriggerFrames/2, "gaze_away", 8*time.Second) {
			tips = append(tips, Tip{Message: "Look at the camera to connect with your audience.", Priority: PriorityUrgent})
		} else if status == StatusGood {
			tips = append(tips, Tip{Message: "Steady eye contact, nice work!", Priority: PriorityPositive})
		}

	case MetricSmileScore:
		recent := mean(tail(e.smileScores, 90))
		// Hitting the scenario target exactly reads as 50%.
		percentage = math.Min(100, recent/(target*2)*100)
		if elapsed < openingSeconds && e.shouldTriggerTip(recent < 0.15, "opening_smile", 5*time.Second) {
			tips = append(tips, Tip{Message: "Remember a brief, warm opening smile.", Priority: PriorityCritical})
		}
		if e.shouldTriggerTip(e.highSmileFrames > tipTriggerFrames, "high_smile", 12*time.Second) {
			tips = append(tips, Tip{Message: "Smile is a bit strong. Try a more relaxed look.", Priority: PriorityModerate})
		}
		if e.shouldTriggerTip(e.furrowedBrowFrames > tipTriggerFrames, "furrowed_brow", 12*time.Second) {
			tips = append(tips, Tip{Message: "Relax your forehead to appear more composed.", Priority: PriorityModerate})
		}

	case MetricExpressionRange:
		smileStd := stdDev(tail(e.smileScores, 150))
		percentage = math.Min(100, smileStd/target*100)
		if e.shouldTriggerTip(percentage < 40, "low_range", 15*time.Second) {
			tips = append(tips, Tip{Message: "Expression is static. Try a gentle smile or small brow raise to add variety.", Priority: PriorityModerate})
		}
		if e.shouldTriggerTip(e.neutralFaceFrames > tipTriggerFrames, "neutral_face", 15*time.Second) {
			tips = append(tips, Tip{Message: "Your face is staying neutral. A gentle smile adds warmth.", Priority: PriorityModerate})
		}

	case MetricPoseStability:
		avgJitter := e.poseJitter.Mean()
		percentage = math.Max(0, 100-avgJitter/(target*2)*100)
		if e.shouldTriggerTip(avgJitter > target*1.5, "high_jitter", 10*time.Second) {
			tips = append(tips, Tip{Message: "Keep your head steady for a composed look.", Priority: PriorityUrgent})
		}

	case MetricHeadShake:
		npm := ratePerMinute(e.headShakeCount, elapsed)
		percentage = math.Max(0, 100-npm/target*100)
		if e.shouldTriggerTip(npm > target, "high_shake", 15*time.Second) {
			tips = append(tips, Tip{Message: "Avoid unintentional head shakes to appear more decisive.", Priority: PriorityModerate})
		}

	case MetricHeadTilt:
		npm := ratePerMinute(e.headTiltCount, elapsed)
		percentage = math.Min(100, npm/target*100)
		if e.shouldTriggerTip(percentage > 70 && elapsed > 15, "good_tilt", 20*time.Second) {
			tips = append(tips, Tip{Message: "Good use of head tilt to show engagement.", Priority: PriorityPositive})
		}

	case MetricMouthOpenness:
		avg := mean(tail(e.mouthOpenScores, 90))
		deviation := math.Abs(avg - target)
		percentage = math.Max(0, 100-deviation*300)
		if e.shouldTriggerTip(avg < target/2 && elapsed > 10, "mouth_closed", 12*time.Second) {
			tips = append(tips, Tip{Message: "Open your mouth slightly more for clearer articulation.", Priority: PriorityModerate})
		}
		if e.shouldTriggerTip(avg > target*1.8, "mouth_too_open", 12*time.Second) {
			tips = append(tips, Tip{Message: "Your mouth is a bit wide. Relax your jaw for a more natural look.", Priority: PriorityModerate})
		}

	case MetricLipPress:
		avg := mean(tail(e.lipPressScores, 90))
		percentage = math.Max(0, 100-avg/target*100)
		if e.shouldTriggerTip(avg > target, "lip_press", 10*time.Second) {
			tips = append(tips, Tip{Message: "You're pressing your lips. Relax your mouth to appear more at ease.", Priority: PriorityModerate})
		}

	case MetricChinAngle:
		avgPitch := e.pitchWindow.Mean()
		percentage = math.Max(0, 100-math.Abs(avgPitch-target)*200)
		if e.shouldTriggerTip(avgPitch > 0.2, "chin_up", 12*time.Second) {
			tips = append(tips, Tip{Message: "Lower your chin slightly for a more balanced and connected look.", Priority: PriorityModerate})
		} else if e.shouldTriggerTip(avgPitch < -0.2, "chin_down", 12*time.Second) {
			tips = append(tips, Tip{Message: "Lift your chin slightly to project more confidence.", Priority: PriorityModerate})
		}

	case MetricStageHeadMovement:
		avgMove := e.poseJitter.Mean()
		switch {
		case avgMove < target*0.5:
			percentage = avgMove / (target * 0.5) * 75
		case avgMove > target*1.5:
			percentage = math.Max(0, 75-(avgMove-target*1.5)/target*75)
		default:
			percentage = 100
		}
		if e.shouldTriggerTip(avgMove < target*0.4 && elapsed > 15, "low_movement", 15*time.Second) {
			tips = append(tips, Tip{Message: "Use more head movements to energize your delivery.", Priority: PriorityModerate})
		}
		if e.shouldTriggerTip(avgMove > target*1.8, "high_movement", 15*time.Second) {
			tips = append(tips, Tip{Message: "Movement is a bit excessive. Try to be more deliberate.", Priority: PriorityModerate})
		}
	}

	return percentage, status, tips
}

func ratePerMinute(count int, elapsed float64) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(count) / elapsed * 60
}

func clampPct(p float64) int {
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	return int(math.Round(p))
}
