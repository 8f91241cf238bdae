// Package panel fits entity fixed-effects linear regressions on regional
// panel data.
//
// Observations are indexed by (region, year). The estimator removes region
// means from the dependent variable and every regressor, adds the grand mean
// back so an intercept stays identified, and solves the transformed system by
// ordinary least squares through a singular value decomposition. Inference
// uses the unadjusted covariance with residual degrees of freedom
// nobs - k - (entities - 1) and Student's t distribution.
//
// # Architecture
//
//   - types.go: Options, Coefficient, FTest and the immutable Result
//   - estimator.go: the within estimator
//   - validate.go: option and input checks
//   - summary.go: the text summary table
//   - persist.go: coefficient CSV and summary report files
//
// # Usage Example
//
//	est := panel.NewEstimator(panel.DefaultOptions(), logger)
//	res, err := est.Fit(ctx, cleaned)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Summary())
//
// # Errors
//
// Invalid options, missing columns and duplicate (region, year) pairs are
// VALIDATION errors. A panel without within-region variation, a rank
// deficient design and too few observations are MODEL errors.
package panel
