// Package builtin 提供内置的三个工具：计算器、SQL 客户端和网页抓取器
package builtin

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/easyops/helloagents-tools/pkg/artifacts"
	"github.com/easyops/helloagents-tools/pkg/core/errors"
	"github.com/easyops/helloagents-tools/pkg/pyfmt"
	"github.com/easyops/helloagents-tools/pkg/tools"
)

// maxPowBits 整数幂运算结果的最大位数
const maxPowBits = 1 << 20

// Calculator 计算器工具
//
// 使用受限求值器计算单行算术表达式，数值语义与 Python 一致：
// 整数运算保持任意精度，"/" 为真除法，"//" 向下取整。
// 不支持导入、变量、字符串及任何非白名单函数。
type Calculator struct{}

// NewCalculator 创建计算器工具
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Name 返回工具名称
func (c *Calculator) Name() string {
	return "calculator"
}

// Activities 返回活动列表
func (c *Calculator) Activities() []tools.Activity {
	return []tools.Activity{
		{
			Name:        "calculate",
			Description: "Can be used for making simple calculations in Python",
			Schema: tools.Schema{
				tools.StringParam("expression",
					"Arithmetic expression parsable in pure Python. Single line only. "+
						"Don't use any imports or external libraries"),
			},
			Handler: c.calculate,
		},
	}
}

// calculate 执行计算
func (c *Calculator) calculate(ctx context.Context, params tools.Params) artifacts.Artifact {
	expr, ok := params.String("expression")
	if !ok {
		return artifacts.NewError("error calculating: missing required parameter: expression")
	}

	result, err := Evaluate(expr)
	if err != nil {
		return artifacts.FromError("error calculating", err)
	}

	return artifacts.NewText(result)
}

// EvalError 表达式错误，消息与 Python 异常文本一致
type EvalError struct {
	Reason string
}

func (e *EvalError) Error() string { return e.Reason }

// Unwrap 支持 errors.Is(err, ErrEvaluationFailed)
func (e *EvalError) Unwrap() error { return errors.ErrEvaluationFailed }

// Evaluate 计算表达式，返回与 Python str() 一致的结果文本
func Evaluate(expr string) (string, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return "", &EvalError{Reason: "empty expression"}
	}
	if strings.ContainsAny(expr, "\n\r;") {
		return "", &EvalError{Reason: "expression must be a single line"}
	}

	node, err := parseExpression(expr)
	if err != nil {
		return "", &EvalError{Reason: err.Error()}
	}

	val, err := evalNode(node)
	if err != nil {
		return "", &EvalError{Reason: err.Error()}
	}
	return val.String(), nil
}

// number 整数（任意精度）或浮点数
type number struct {
	isInt bool
	i     *big.Int
	f     float64
}

func intNum(i *big.Int) number  { return number{isInt: true, i: i} }
func floatNum(f float64) number { return number{f: f} }

func (n number) float() float64 {
	if n.isInt {
		f, _ := new(big.Float).SetInt(n.i).Float64()
		return f
	}
	return n.f
}

// toFloat 转换为浮点数，整数超出 float64 范围时报错
func (n number) toFloat() (float64, error) {
	f := n.float()
	if n.isInt && math.IsInf(f, 0) {
		return 0, fmt.Errorf("int too large to convert to float")
	}
	return f, nil
}

// toFloats 依次转换多个操作数
func toFloats(nums ...number) ([]float64, error) {
	fs := make([]float64, len(nums))
	for i, n := range nums {
		f, err := n.toFloat()
		if err != nil {
			return nil, err
		}
		fs[i] = f
	}
	return fs, nil
}

func (n number) typeName() string {
	if n.isInt {
		return "int"
	}
	return "float"
}

// String 按 Python str() 规则格式化
func (n number) String() string {
	if n.isInt {
		return n.i.String()
	}
	return pyfmt.Float(n.f)
}

func evalNode(node exprNode) (number, error) {
	switch n := node.(type) {
	case *numberLit:
		return n.val, nil

	case *unaryExpr:
		x, err := evalNode(n.x)
		if err != nil {
			return number{}, err
		}
		if n.op == "+" {
			return x, nil
		}
		if x.isInt {
			return intNum(new(big.Int).Neg(x.i)), nil
		}
		return floatNum(-x.f), nil

	case *binaryExpr:
		left, err := evalNode(n.x)
		if err != nil {
			return number{}, err
		}
		right, err := evalNode(n.y)
		if err != nil {
			return number{}, err
		}
		return evalBinary(n.op, left, right)

	case *callExpr:
		args := make([]number, 0, len(n.args))
		for _, a := range n.args {
			v, err := evalNode(a)
			if err != nil {
				return number{}, err
			}
			args = append(args, v)
		}
		return callFunction(n.fn, args)

	case *nameRef:
		if v, ok := constants[n.name]; ok {
			return floatNum(v), nil
		}
		return number{}, fmt.Errorf("name '%s' is not defined", n.name)

	default:
		return number{}, fmt.Errorf("unsupported expression type: %T", node)
	}
}

func evalBinary(op string, left, right number) (number, error) {
	if op == "**" {
		return power(left, right)
	}
	if left.isInt && right.isInt {
		return evalIntBinary(op, left.i, right.i)
	}

	fs, err := toFloats(left, right)
	if err != nil {
		return number{}, err
	}
	l, r := fs[0], fs[1]

	switch op {
	case "+":
		return floatNum(l + r), nil
	case "-":
		return floatNum(l - r), nil
	case "*":
		return floatNum(l * r), nil
	case "/":
		if r == 0 {
			return number{}, fmt.Errorf("division by zero")
		}
		return floatNum(l / r), nil
	case "//":
		if r == 0 {
			return number{}, fmt.Errorf("float floor division by zero")
		}
		return floatNum(math.Floor(l / r)), nil
	case "%":
		if r == 0 {
			return number{}, fmt.Errorf("float modulo")
		}
		return floatNum(floatMod(l, r)), nil
	default:
		return number{}, fmt.Errorf("unsupported operator: %s", op)
	}
}

func evalIntBinary(op string, l, r *big.Int) (number, error) {
	switch op {
	case "+":
		return intNum(new(big.Int).Add(l, r)), nil
	case "-":
		return intNum(new(big.Int).Sub(l, r)), nil
	case "*":
		return intNum(new(big.Int).Mul(l, r)), nil
	case "/":
		if r.Sign() == 0 {
			return number{}, fmt.Errorf("division by zero")
		}
		q, _ := new(big.Rat).SetFrac(l, r).Float64()
		if math.IsInf(q, 0) {
			return number{}, fmt.Errorf("integer division result too large for a float")
		}
		return floatNum(q), nil
	case "//", "%":
		if r.Sign() == 0 {
			return number{}, fmt.Errorf("integer division or modulo by zero")
		}
		q, m := floorDivMod(l, r)
		if op == "%" {
			return intNum(m), nil
		}
		return intNum(q), nil
	default:
		return number{}, fmt.Errorf("unsupported operator: %s", op)
	}
}

// floorDivMod 向下取整的整除和取模，余数符号与除数一致
func floorDivMod(a, b *big.Int) (*big.Int, *big.Int) {
	q, r := new(big.Int).QuoRem(a, b, new(big.Int))
	if r.Sign() != 0 && (r.Sign() < 0) != (b.Sign() < 0) {
		q.Sub(q, big.NewInt(1))
		r.Add(r, b)
	}
	return q, r
}

func floatMod(a, b float64) float64 {
	m := math.Mod(a, b)
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}

func power(base, exp number) (number, error) {
	if base.isInt && exp.isInt {
		if exp.i.Sign() >= 0 {
			if bits := int64(base.i.BitLen()); bits > 1 &&
				(!exp.i.IsInt64() || exp.i.Int64() > maxPowBits/bits) {
				return number{}, fmt.Errorf("exponent too large")
			}
			return intNum(new(big.Int).Exp(base.i, exp.i, nil)), nil
		}
		if base.i.Sign() == 0 {
			return number{}, fmt.Errorf("0.0 cannot be raised to a negative power")
		}
	}

	fs, err := toFloats(base, exp)
	if err != nil {
		return number{}, err
	}
	b, e := fs[0], fs[1]
	if b == 0 && e < 0 {
		return number{}, fmt.Errorf("0.0 cannot be raised to a negative power")
	}
	if b < 0 && e != math.Trunc(e) {
		return number{}, fmt.Errorf("complex results are not supported")
	}
	r := math.Pow(b, e)
	if math.IsInf(r, 0) && !math.IsInf(b, 0) {
		return number{}, fmt.Errorf("numerical result out of range")
	}
	return floatNum(r), nil
}

// constants 可用的数学常量
var constants = map[string]float64{
	"math.pi":  math.Pi,
	"math.e":   math.E,
	"math.tau": 2 * math.Pi,
	"math.inf": math.Inf(1),
}

// unaryMath 单参数数学函数
var unaryMath = map[string]func(float64) float64{
	"math.sqrt":  math.Sqrt,
	"math.exp":   math.Exp,
	"math.log10": math.Log10,
	"math.log2":  math.Log2,
	"math.sin":   math.Sin,
	"math.cos":   math.Cos,
	"math.tan":   math.Tan,
	"math.asin":  math.Asin,
	"math.acos":  math.Acos,
	"math.atan":  math.Atan,
	"math.fabs":  math.Abs,
}

// callFunction 调用白名单函数
func callFunction(name string, args []number) (number, error) {
	if fn, ok := unaryMath[name]; ok {
		if len(args) != 1 {
			return number{}, fmt.Errorf("%s() takes exactly one argument (%d given)", name, len(args))
		}
		x, err := args[0].toFloat()
		if err != nil {
			return number{}, err
		}
		r := fn(x)
		if math.IsNaN(r) {
			return number{}, fmt.Errorf("math domain error")
		}
		return floatNum(r), nil
	}

	switch name {
	case "abs":
		if len(args) != 1 {
			return number{}, fmt.Errorf("abs() takes exactly one argument (%d given)", len(args))
		}
		if args[0].isInt {
			return intNum(new(big.Int).Abs(args[0].i)), nil
		}
		return floatNum(math.Abs(args[0].f)), nil

	case "pow":
		if len(args) != 2 {
			return number{}, fmt.Errorf("pow() expected 2 arguments, got %d", len(args))
		}
		return power(args[0], args[1])

	case "min", "max":
		switch len(args) {
		case 0:
			return number{}, fmt.Errorf("%s expected at least 1 argument, got 0", name)
		case 1:
			return number{}, fmt.Errorf("'%s' object is not iterable", args[0].typeName())
		}
		best := args[0]
		for _, a := range args[1:] {
			c := compare(a, best)
			if (name == "min" && c < 0) || (name == "max" && c > 0) {
				best = a
			}
		}
		return best, nil

	case "round":
		return round(args)

	case "int", "math.floor", "math.ceil", "math.trunc":
		if len(args) != 1 {
			return number{}, fmt.Errorf("%s() takes exactly one argument (%d given)", name, len(args))
		}
		return toInt(name, args[0])

	case "float":
		if len(args) != 1 {
			return number{}, fmt.Errorf("float() takes exactly one argument (%d given)", len(args))
		}
		f, err := args[0].toFloat()
		if err != nil {
			return number{}, err
		}
		return floatNum(f), nil

	case "math.log":
		if len(args) < 1 || len(args) > 2 {
			return number{}, fmt.Errorf("log expected 1 or 2 arguments, got %d", len(args))
		}
		x, err := logOf(args[0])
		if err != nil {
			return number{}, err
		}
		if len(args) == 2 {
			b, err := logOf(args[1])
			if err != nil {
				return number{}, err
			}
			if b == 0 {
				return number{}, fmt.Errorf("float division by zero")
			}
			return floatNum(x / b), nil
		}
		return floatNum(x), nil
	}

	if pythonKeywords[name] {
		return number{}, fmt.Errorf("disallowed construct: %s", name)
	}
	return number{}, fmt.Errorf("name '%s' is not defined", name)
}

func compare(a, b number) int {
	if a.isInt && b.isInt {
		return a.i.Cmp(b.i)
	}
	fa, fb := a.float(), b.float()
	switch {
	case fa < fb:
		return -1
	case fa > fb:
		return 1
	}
	return 0
}

// toInt 将数值转换为整数，name 决定取整方向
func toInt(name string, n number) (number, error) {
	if n.isInt {
		return n, nil
	}
	f := n.f
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return number{}, fmt.Errorf("cannot convert float %s to integer", pyfmt.Float(f))
	}
	switch name {
	case "math.floor":
		f = math.Floor(f)
	case "math.ceil":
		f = math.Ceil(f)
	default:
		f = math.Trunc(f)
	}
	i, _ := new(big.Float).SetFloat64(f).Int(nil)
	return intNum(i), nil
}

// logOf 自然对数，大整数按尾数和指数分别计算，不经过 float64 转换
func logOf(n number) (float64, error) {
	if !n.isInt {
		if n.f <= 0 || math.IsNaN(n.f) {
			return 0, fmt.Errorf("math domain error")
		}
		return math.Log(n.f), nil
	}
	if n.i.Sign() <= 0 {
		return 0, fmt.Errorf("math domain error")
	}
	if n.i.BitLen() <= 1000 {
		return math.Log(n.float()), nil
	}
	mant := new(big.Float).SetInt(n.i)
	exp := mant.MantExp(mant)
	m, _ := mant.Float64()
	return math.Log(m) + float64(exp)*math.Ln2, nil
}

// round 实现 Python round()
//
// 无精度参数时使用银行家舍入并返回整数；有精度参数时按浮点数的精确十进制值舍入。
func round(args []number) (number, error) {
	if len(args) < 1 || len(args) > 2 {
		return number{}, fmt.Errorf("round() takes 1 or 2 arguments (%d given)", len(args))
	}
	x := args[0]
	if len(args) == 1 {
		if x.isInt {
			return x, nil
		}
		return toInt("int", floatNum(math.RoundToEven(x.f)))
	}

	nd := args[1]
	if !nd.isInt {
		return number{}, fmt.Errorf("'float' object cannot be interpreted as an integer")
	}
	if x.isInt {
		return intNum(roundInt(x.i, nd.i)), nil
	}
	return roundFloat(x.f, nd.i)
}

// maxRoundDigits 超过该位数时舍入不改变 float64 的值
const maxRoundDigits = 400

// roundInt 将整数舍入到 10 的 -nd 次方的倍数
func roundInt(x, nd *big.Int) *big.Int {
	if nd.Sign() >= 0 {
		return x
	}
	k := new(big.Int).Neg(nd)
	if !k.IsInt64() || k.Int64() > int64(len(new(big.Int).Abs(x).String())) {
		return new(big.Int)
	}
	pow := new(big.Int).Exp(big.NewInt(10), k, nil)
	q := roundHalfEven(x, pow)
	return q.Mul(q, pow)
}

// roundFloat 按 nd 位小数舍入，nd 可以为负
func roundFloat(x float64, nd *big.Int) (number, error) {
	if math.IsInf(x, 0) || math.IsNaN(x) || x == 0 {
		return floatNum(x), nil
	}
	if nd.Sign() >= 0 {
		if !nd.IsInt64() || nd.Int64() > maxRoundDigits {
			return floatNum(x), nil
		}
		r, _ := strconv.ParseFloat(strconv.FormatFloat(x, 'f', int(nd.Int64()), 64), 64)
		return floatNum(r), nil
	}

	if !nd.IsInt64() || -nd.Int64() > maxRoundDigits {
		return floatNum(math.Copysign(0, x)), nil
	}
	pow := new(big.Int).Exp(big.NewInt(10), big.NewInt(-nd.Int64()), nil)
	exact := new(big.Rat).SetFloat64(x)
	scaled := exact.Quo(exact, new(big.Rat).SetInt(pow))
	q := roundHalfEven(scaled.Num(), scaled.Denom())
	r, _ := new(big.Float).SetInt(q.Mul(q, pow)).Float64()
	if math.IsInf(r, 0) {
		return number{}, fmt.Errorf("rounded value too large to represent")
	}
	if r == 0 {
		r = math.Copysign(0, x)
	}
	return floatNum(r), nil
}

// roundHalfEven 计算 num/den 并四舍六入五成双，den 为正
func roundHalfEven(num, den *big.Int) *big.Int {
	q, r := floorDivMod(num, den)
	twice := new(big.Int).Lsh(r, 1)
	if c := twice.Cmp(den); c > 0 || (c == 0 && q.Bit(0) == 1) {
		q.Add(q, big.NewInt(1))
	}
	return q
}

// compile-time interface check
var _ tools.Tool = (*Calculator)(nil)
